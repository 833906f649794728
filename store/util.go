package store

import (
	"encoding/binary"
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
)

func tsToBytes(ts time.Time) []byte {
	buf := make([]byte, 8)
	d := ts.UnixNano()
	binary.BigEndian.PutUint64(buf, uint64(d))
	return buf
}

func uint64ToBytes(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func bytesToUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func nextSequence(txn *badger.Txn, key string) (uint64, error) {
	val, err := readValue(txn, []byte(key))
	if err != nil {
		return 0, err
	}
	seq := bytesToUint64(val) + 1
	return seq, txn.Set([]byte(key), uint64ToBytes(seq))
}

// readRecord decodes the msgpack payload at key into val and reports
// whether the key exists.
func readRecord(txn *badger.Txn, key []byte, val interface{}) (bool, error) {
	raw, err := readValue(txn, key)
	if err != nil || raw == nil {
		return false, err
	}
	return true, common.MsgpackUnmarshal(raw, val)
}

func writeRecord(txn *badger.Txn, key []byte, val interface{}) error {
	return txn.Set(key, common.MsgpackMarshalPanic(val))
}
