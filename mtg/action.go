package mtg

import "time"

const (
	ActionStateInitial = 10
	ActionStateDone    = 11
	ActionStateParked  = 12
)

// Action marks the outcome of the workers on an output, so an output is
// never handed to the workers again once it is done or parked. A parked
// output failed deterministically and waits for the operator.
type Action struct {
	UTXOID    string
	CreatedAt time.Time
	State     int
}

func (grp *Group) writeAction(out *Output, state int) error {
	return grp.store.WriteAction(&Action{
		UTXOID:    out.UTXOID,
		CreatedAt: out.CreatedAt,
		State:     state,
	})
}
