package store

import (
	"github.com/MixinNetwork/packmint/nft"
)

const prefixEscrow = "ESCROW:"

func (mt *minterTxn) ReadEscrow(account string) (*nft.Escrow, error) {
	var e nft.Escrow
	found, err := readRecord(mt.txn, []byte(prefixEscrow+account), &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

func (mt *minterTxn) WriteEscrow(e *nft.Escrow) error {
	if e.Balance.IsNegative() || e.Held.IsNegative() || e.Held.GreaterThan(e.Balance) {
		panic(e.Account)
	}
	return writeRecord(mt.txn, []byte(prefixEscrow+e.Account), e)
}

func (mt *minterTxn) DeleteEscrow(account string) error {
	return mt.txn.Delete([]byte(prefixEscrow + account))
}
