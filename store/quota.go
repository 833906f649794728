package store

import (
	"github.com/MixinNetwork/packmint/nft"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixQuotaPayload = "QUOTA:PAYLOAD:"
	prefixQuotaQueue   = "QUOTA:QUEUE:"
	keyQuotaSequence   = "QUOTA:SEQUENCE"
	prefixMinted       = "MINTED:"
)

func (mt *minterTxn) ReadWhitelistEntry(account string) (*nft.WhitelistEntry, error) {
	var e nft.WhitelistEntry
	found, err := readRecord(mt.txn, []byte(prefixQuotaPayload+account), &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

// WriteWhitelistEntry assigns the insertion sequence to new entries, the
// queue key keeps pages in insertion order.
func (mt *minterTxn) WriteWhitelistEntry(e *nft.WhitelistEntry) error {
	if e.Sequence == 0 {
		seq, err := nextSequence(mt.txn, keyQuotaSequence)
		if err != nil {
			return err
		}
		e.Sequence = seq
	}
	err := writeRecord(mt.txn, []byte(prefixQuotaPayload+e.Account), e)
	if err != nil {
		return err
	}
	return mt.txn.Set(buildQuotaQueueKey(e), []byte{1})
}

func (mt *minterTxn) DeleteWhitelistEntry(account string) error {
	old, err := mt.ReadWhitelistEntry(account)
	if err != nil || old == nil {
		return err
	}
	err = mt.txn.Delete(buildQuotaQueueKey(old))
	if err != nil {
		return err
	}
	return mt.txn.Delete([]byte(prefixQuotaPayload + account))
}

func (mt *minterTxn) ListWhitelistEntries(offset, limit int) ([]*nft.WhitelistEntry, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixQuotaQueue)
	it := mt.txn.NewIterator(opts)
	defer it.Close()

	var entries []*nft.WhitelistEntry
	for it.Seek(opts.Prefix); it.Valid() && len(entries) < limit; it.Next() {
		if offset > 0 {
			offset--
			continue
		}
		key := it.Item().Key()
		account := string(key[len(opts.Prefix)+8:])
		e, err := mt.ReadWhitelistEntry(account)
		if err != nil {
			return nil, err
		}
		if e == nil {
			panic(account)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (mt *minterTxn) ReadMinted(account string) (*nft.Minted, error) {
	var m nft.Minted
	found, err := readRecord(mt.txn, []byte(prefixMinted+account), &m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (mt *minterTxn) WriteMinted(m *nft.Minted) error {
	return writeRecord(mt.txn, []byte(prefixMinted+m.Account), m)
}

func buildQuotaQueueKey(e *nft.WhitelistEntry) []byte {
	key := append([]byte(prefixQuotaQueue), uint64ToBytes(e.Sequence)...)
	return append(key, []byte(e.Account)...)
}
