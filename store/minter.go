package store

import (
	"context"

	"github.com/MixinNetwork/packmint/nft"
	"github.com/dgraph-io/badger/v3"
	"github.com/shopspring/decimal"
)

const (
	keySaleFingerprint = "SALE:FINGERPRINT"
	keyInventory       = "INVENTORY"
	prefixRevenue      = "REVENUE:"
	prefixReceipt      = "RECEIPT:"
)

// minterTxn implements nft.Txn over a single badger transaction.
type minterTxn struct {
	txn *badger.Txn
}

func (bs *BadgerStore) Step(ctx context.Context, fn func(nft.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return bs.db.Update(func(txn *badger.Txn) error {
		return fn(&minterTxn{txn: txn})
	})
}

func (bs *BadgerStore) View(ctx context.Context, fn func(nft.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return bs.db.View(func(txn *badger.Txn) error {
		return fn(&minterTxn{txn: txn})
	})
}

func (mt *minterTxn) ReadSaleFingerprint() (string, error) {
	val, err := readValue(mt.txn, []byte(keySaleFingerprint))
	return string(val), err
}

func (mt *minterTxn) WriteSaleFingerprint(fp string) error {
	return mt.txn.Set([]byte(keySaleFingerprint), []byte(fp))
}

func (mt *minterTxn) ReadInventory() (*nft.Inventory, error) {
	var inv nft.Inventory
	found, err := readRecord(mt.txn, []byte(keyInventory), &inv)
	if err != nil || !found {
		return nil, err
	}
	return &inv, nil
}

func (mt *minterTxn) WriteInventory(inv *nft.Inventory) error {
	if inv.Cursor > inv.Supply {
		panic(inv.Cursor)
	}
	return writeRecord(mt.txn, []byte(keyInventory), inv)
}

func (mt *minterTxn) ReadRevenue(asset string) (decimal.Decimal, error) {
	val, err := readValue(mt.txn, []byte(prefixRevenue+asset))
	if err != nil || val == nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(val))
}

func (mt *minterTxn) WriteRevenue(asset string, amount decimal.Decimal) error {
	return mt.txn.Set([]byte(prefixRevenue+asset), []byte(amount.String()))
}

func (mt *minterTxn) ReadReceipt(traceId string) (*nft.Receipt, error) {
	var r nft.Receipt
	found, err := readRecord(mt.txn, []byte(prefixReceipt+traceId), &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

func (mt *minterTxn) WriteReceipt(r *nft.Receipt) error {
	return writeRecord(mt.txn, []byte(prefixReceipt+r.TraceId), r)
}
