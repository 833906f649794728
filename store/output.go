package store

import (
	"github.com/MixinNetwork/packmint/mtg"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixOutputPayload = "OUTPUT:PAYLOAD:"
	prefixOutputState   = "OUTPUT:STATE:"
)

func (bs *BadgerStore) WriteOutput(utxo *mtg.Output) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		err := resetOldOutput(txn, utxo)
		if err != nil {
			return err
		}
		err = writeRecord(txn, []byte(prefixOutputPayload+utxo.UTXOID), utxo)
		if err != nil {
			return err
		}
		return txn.Set(buildOutputTimedKey(utxo), []byte{1})
	})
}

func (bs *BadgerStore) ReadOutput(utxoID string) (*mtg.Output, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readOutput(txn, utxoID)
}

func (bs *BadgerStore) ListOutputs(state int, limit int) ([]*mtg.Output, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(outputStatePrefix(state))
	it := txn.NewIterator(opts)
	defer it.Close()

	var outputs []*mtg.Output
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		out, err := readOutput(txn, id)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
		if len(outputs) == limit {
			break
		}
	}
	return outputs, nil
}

func resetOldOutput(txn *badger.Txn, utxo *mtg.Output) error {
	old, err := readOutput(txn, utxo.UTXOID)
	if err != nil || old == nil {
		return err
	}
	if old.State > utxo.State {
		panic(old.UTXOID)
	}
	return txn.Delete(buildOutputTimedKey(old))
}

func readOutput(txn *badger.Txn, id string) (*mtg.Output, error) {
	var utxo mtg.Output
	found, err := readRecord(txn, []byte(prefixOutputPayload+id), &utxo)
	if err != nil || !found {
		return nil, err
	}
	return &utxo, nil
}

func buildOutputTimedKey(out *mtg.Output) []byte {
	key := append([]byte(outputStatePrefix(out.State)), tsToBytes(out.UpdatedAt)...)
	return append(key, []byte(out.UTXOID)...)
}

func outputStatePrefix(state int) string {
	switch state {
	case mtg.OutputStateUnspent:
		return prefixOutputState + "unspent:"
	case mtg.OutputStateSpent:
		return prefixOutputState + "spent:"
	}
	panic(state)
}
