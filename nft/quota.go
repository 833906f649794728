package nft

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
)

func (m *Minter) AddEntry(ctx context.Context, caller string, e *WhitelistEntry) error {
	return m.step(ctx, func(txn Txn) error {
		return m.addEntry(txn, caller, e)
	})
}

func (m *Minter) RemoveEntry(ctx context.Context, caller, account string) error {
	return m.step(ctx, func(txn Txn) error {
		return m.removeEntry(txn, caller, account)
	})
}

// QuotaPage lists whitelist entries in insertion order.
func (m *Minter) QuotaPage(ctx context.Context, start, limit int) ([]*WhitelistEntry, error) {
	if start < 0 || limit <= 0 {
		return nil, nil
	}
	var entries []*WhitelistEntry
	err := m.store.View(ctx, func(txn Txn) error {
		r, err := txn.ListWhitelistEntries(start, limit)
		entries = r
		return err
	})
	return entries, err
}

func (m *Minter) addEntry(txn Txn, caller string, e *WhitelistEntry) error {
	if caller != m.sale.Admin {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
	}
	if !validId(e.Account) {
		return fmt.Errorf("%w: %s", ErrInvalidAccount, e.Account)
	}
	if e.Price.IsNegative() || !e.Price.Truncate(8).Equal(e.Price) {
		return fmt.Errorf("%w: invalid price %s", ErrMalformedInstruction, e.Price)
	}
	old, err := txn.ReadWhitelistEntry(e.Account)
	if err != nil {
		return err
	}
	if old != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Account)
	}
	e.Sequence = 0
	err = txn.WriteWhitelistEntry(e)
	if err != nil {
		return err
	}
	logger.Printf("Minter.addEntry(%s, %s, %d)\n", e.Account, e.Price, e.Cap)
	return nil
}

func (m *Minter) removeEntry(txn Txn, caller, account string) error {
	if caller != m.sale.Admin {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
	}
	old, err := txn.ReadWhitelistEntry(account)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	logger.Printf("Minter.removeEntry(%s)\n", account)
	return txn.DeleteWhitelistEntry(account)
}
