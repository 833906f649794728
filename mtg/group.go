package mtg

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MixinNetwork/mixin/logger"
)

type Group struct {
	mutex      sync.Mutex
	store      Store
	clock      *Clock
	transferer Transferer
	workers    []Worker
}

func BuildGroup(ctx context.Context, store Store, transferer Transferer) (*Group, error) {
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	grp := &Group{
		store:      store,
		clock:      clock,
		transferer: transferer,
	}
	return grp, nil
}

func (grp *Group) AddWorker(wkr Worker) {
	grp.workers = append(grp.workers, wkr)
}

func (grp *Group) Now() time.Time {
	return grp.clock.Now()
}

func (grp *Group) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		handled, err := grp.handleUnspentOutputs(ctx)
		if err != nil {
			logger.Printf("Group.handleUnspentOutputs() => %v\n", err)
		}
		published, err := grp.publishTransactions(ctx)
		if err != nil {
			logger.Printf("Group.publishTransactions() => %v\n", err)
		}
		if handled+published > 0 {
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
	}
}

// ReceiveOutput records a new unspent output for the workers, a known
// output is ignored whatever its state.
func (grp *Group) ReceiveOutput(ctx context.Context, out *Output) error {
	err := out.validate()
	if err != nil {
		return err
	}

	grp.mutex.Lock()
	defer grp.mutex.Unlock()

	old, err := grp.store.ReadOutput(out.UTXOID)
	if err != nil || old != nil {
		return err
	}
	out.State = OutputStateUnspent
	out.UpdatedAt = time.Now()
	return grp.store.WriteOutput(out)
}

// handleUnspentOutputs hands the unspent outputs to the workers in update
// order. An output failing with ErrInvalidTransaction is parked, any other
// failure moves it to the back of the queue, so no output blocks the rest.
func (grp *Group) handleUnspentOutputs(ctx context.Context) (int, error) {
	outputs, err := grp.store.ListOutputs(OutputStateUnspent, 16)
	if err != nil {
		return 0, err
	}
	var handled int
	var failed error
	for _, out := range outputs {
		err := grp.handleOutput(ctx, out)
		if err == nil {
			handled += 1
			continue
		}
		if ctx.Err() != nil {
			return handled, ctx.Err()
		}
		logger.Printf("Group.handleOutput(%s) => %v\n", out.UTXOID, err)
		failed = err
		if errors.Is(err, ErrInvalidTransaction) {
			err = grp.parkOutput(out)
			handled += 1
		} else {
			err = grp.requeueOutput(out)
		}
		if err != nil {
			return handled, err
		}
	}
	return handled, failed
}

func (grp *Group) parkOutput(out *Output) error {
	err := grp.writeAction(out, ActionStateParked)
	if err != nil {
		return err
	}

	grp.mutex.Lock()
	defer grp.mutex.Unlock()

	out.State = OutputStateSpent
	out.UpdatedAt = time.Now()
	return grp.store.WriteOutput(out)
}

func (grp *Group) requeueOutput(out *Output) error {
	grp.mutex.Lock()
	defer grp.mutex.Unlock()

	out.UpdatedAt = time.Now()
	return grp.store.WriteOutput(out)
}

func (grp *Group) handleOutput(ctx context.Context, out *Output) error {
	act, err := grp.store.ReadAction(out.UTXOID)
	if err != nil {
		return err
	}
	if act == nil || act.State == ActionStateInitial {
		for _, wkr := range grp.workers {
			err := wkr.ProcessOutput(ctx, out)
			if err != nil {
				return err
			}
		}
		err = grp.writeAction(out, ActionStateDone)
		if err != nil {
			return err
		}
	}

	grp.mutex.Lock()
	defer grp.mutex.Unlock()

	out.State = OutputStateSpent
	out.UpdatedAt = time.Now()
	return grp.store.WriteOutput(out)
}
