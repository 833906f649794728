package mtg

import (
	"context"
)

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	WriteOutput(utxo *Output) error
	ReadOutput(utxoID string) (*Output, error)
	ListOutputs(state int, limit int) ([]*Output, error)

	WriteAction(act *Action) error
	ReadAction(utxoID string) (*Action, error)

	WriteTransaction(tx *Transaction) error
	ReadTransaction(traceId string) (*Transaction, error)
	ListTransactions(state int, limit int) ([]*Transaction, error)
}

// Worker consumes every unspent output exactly once per group run. It must
// be idempotent, an output is handed out again if the process stops before
// the output is marked spent.
type Worker interface {
	ProcessOutput(context.Context, *Output) error
}

// Transferer moves the value of a transaction out of the group. The trace
// id is the deduplication key on the remote side.
type Transferer interface {
	Transfer(ctx context.Context, tx *Transaction) error
}
