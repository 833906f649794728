package store

import (
	"github.com/MixinNetwork/packmint/mtg"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixTransactionPayload = "TRANSACTION:PAYLOAD:"
	prefixTransactionState   = "TRANSACTION:STATE:"
)

func (bs *BadgerStore) WriteTransaction(tx *mtg.Transaction) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		err := resetOldTransaction(txn, tx)
		if err != nil {
			return err
		}
		err = writeRecord(txn, []byte(prefixTransactionPayload+tx.TraceId), tx)
		if err != nil {
			return err
		}
		return txn.Set(buildTransactionTimedKey(tx), []byte{1})
	})
}

func (bs *BadgerStore) ReadTransaction(traceId string) (*mtg.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readTransaction(txn, traceId)
}

func (bs *BadgerStore) ListTransactions(state int, limit int) ([]*mtg.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(transactionStatePrefix(state))
	it := txn.NewIterator(opts)
	defer it.Close()

	var txs []*mtg.Transaction
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		tx, err := readTransaction(txn, id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		if len(txs) == limit {
			break
		}
	}
	return txs, nil
}

func readTransaction(txn *badger.Txn, traceId string) (*mtg.Transaction, error) {
	var tx mtg.Transaction
	found, err := readRecord(txn, []byte(prefixTransactionPayload+traceId), &tx)
	if err != nil || !found {
		return nil, err
	}
	return &tx, nil
}

func resetOldTransaction(txn *badger.Txn, tx *mtg.Transaction) error {
	old, err := readTransaction(txn, tx.TraceId)
	if err != nil || old == nil {
		return err
	}
	if old.State > tx.State {
		panic(old.TraceId)
	}
	return txn.Delete(buildTransactionTimedKey(old))
}

func buildTransactionTimedKey(tx *mtg.Transaction) []byte {
	key := append([]byte(transactionStatePrefix(tx.State)), tsToBytes(tx.UpdatedAt)...)
	return append(key, []byte(tx.TraceId)...)
}

func transactionStatePrefix(state int) string {
	switch state {
	case mtg.TransactionStateInitial:
		return prefixTransactionState + "initial:"
	case mtg.TransactionStateDone:
		return prefixTransactionState + "done:"
	}
	panic(state)
}
