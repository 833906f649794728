package store

import (
	"github.com/MixinNetwork/packmint/mtg"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixActionPayload = "ACTION:PAYLOAD:"
	prefixActionState   = "ACTION:STATE:"
)

func (bs *BadgerStore) WriteAction(act *mtg.Action) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := resetOldAction(txn, act)
		if err != nil || old != nil {
			return err
		}
		err = writeRecord(txn, []byte(prefixActionPayload+act.UTXOID), act)
		if err != nil {
			return err
		}
		return txn.Set(buildActionTimedKey(act), []byte{1})
	})
}

func (bs *BadgerStore) ReadAction(utxoID string) (*mtg.Action, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return readAction(txn, utxoID)
}

// resetOldAction returns the stored action when it is already at or past
// the new state, which leaves it untouched.
func resetOldAction(txn *badger.Txn, act *mtg.Action) (*mtg.Action, error) {
	old, err := readAction(txn, act.UTXOID)
	if err != nil || old == nil {
		return old, err
	}
	if old.State >= act.State {
		return old, nil
	}

	key := buildActionTimedKey(old)
	_, err = txn.Get(key)
	if err != nil {
		panic(key)
	}
	return nil, txn.Delete(key)
}

func readAction(txn *badger.Txn, id string) (*mtg.Action, error) {
	var act mtg.Action
	found, err := readRecord(txn, []byte(prefixActionPayload+id), &act)
	if err != nil || !found {
		return nil, err
	}
	return &act, nil
}

func buildActionTimedKey(act *mtg.Action) []byte {
	key := append([]byte(actionStatePrefix(act.State)), tsToBytes(act.CreatedAt)...)
	return append(key, []byte(act.UTXOID)...)
}

func actionStatePrefix(state int) string {
	switch state {
	case mtg.ActionStateInitial:
		return prefixActionState + "initial:"
	case mtg.ActionStateDone:
		return prefixActionState + "done:"
	case mtg.ActionStateParked:
		return prefixActionState + "parked:"
	}
	panic(state)
}
