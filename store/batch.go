package store

import (
	"github.com/MixinNetwork/packmint/nft"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixBatchPayload = "BATCH:PAYLOAD:"
	prefixBatchState   = "BATCH:STATE:"
	keyBatchSequence   = "BATCH:SEQUENCE"
)

func (mt *minterTxn) NextBatchId() (uint64, error) {
	return nextSequence(mt.txn, keyBatchSequence)
}

func (mt *minterTxn) ReadBatch(id uint64) (*nft.Batch, error) {
	return readBatch(mt.txn, id)
}

func (mt *minterTxn) WriteBatch(b *nft.Batch) error {
	old, err := readBatch(mt.txn, b.Id)
	if err != nil {
		return err
	}
	if old != nil && old.State > b.State {
		panic(old.State)
	}
	if old != nil && old.State != b.State {
		err = mt.txn.Delete(buildBatchStateKey(old))
		if err != nil {
			return err
		}
	}
	key := append([]byte(prefixBatchPayload), uint64ToBytes(b.Id)...)
	err = writeRecord(mt.txn, key, b)
	if err != nil {
		return err
	}
	return mt.txn.Set(buildBatchStateKey(b), []byte{1})
}

// ListBatches returns batches in the state in dispatch order.
func (bs *BadgerStore) ListBatches(state int, limit int) ([]*nft.Batch, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(batchStatePrefix(state))
	it := txn.NewIterator(opts)
	defer it.Close()

	var batches []*nft.Batch
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := bytesToUint64(key[len(opts.Prefix):])
		b, err := readBatch(txn, id)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
		if len(batches) == limit {
			break
		}
	}
	return batches, nil
}

func readBatch(txn *badger.Txn, id uint64) (*nft.Batch, error) {
	var b nft.Batch
	key := append([]byte(prefixBatchPayload), uint64ToBytes(id)...)
	found, err := readRecord(txn, key, &b)
	if err != nil || !found {
		return nil, err
	}
	return &b, nil
}

func buildBatchStateKey(b *nft.Batch) []byte {
	key := []byte(batchStatePrefix(b.State))
	return append(key, uint64ToBytes(b.Id)...)
}

func batchStatePrefix(state int) string {
	switch state {
	case nft.BatchStateReserved:
		return prefixBatchState + "reserved:"
	case nft.BatchStateSettled:
		return prefixBatchState + "settled:"
	case nft.BatchStateVoided:
		return prefixBatchState + "voided:"
	case nft.BatchStatePartial:
		return prefixBatchState + "partial:"
	}
	panic(state)
}
