package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MixinNetwork/packmint/mtg"
	"github.com/MixinNetwork/packmint/nft"
	"github.com/shopspring/decimal"
)

func testBadgerStore(t *testing.T) *BadgerStore {
	bs, err := OpenBadger(context.Background(), "")
	if err != nil {
		t.Fatalf("OpenBadger() => %v", err)
	}
	t.Cleanup(func() { bs.Close() })
	return bs
}

func TestStepDiscardsOnError(t *testing.T) {
	bs := testBadgerStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := bs.Step(ctx, func(txn nft.Txn) error {
		err := txn.WriteInventory(&nft.Inventory{Supply: 10, Cursor: 10})
		if err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("Step() => %v", err)
	}
	err = bs.View(ctx, func(txn nft.Txn) error {
		inv, err := txn.ReadInventory()
		if err != nil {
			return err
		}
		if inv != nil {
			t.Fatalf("inventory %v kept after failed step", inv)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() => %v", err)
	}
}

func TestStepCancelled(t *testing.T) {
	bs := testBadgerStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := bs.Step(ctx, func(txn nft.Txn) error { return nil })
	if err != context.Canceled {
		t.Fatalf("Step() => %v", err)
	}
}

func TestEscrowRecords(t *testing.T) {
	bs := testBadgerStore(t)
	ctx := context.Background()

	account := "0a1b7c52-3b3d-4b2e-9c4a-6e1f2d3c4b5a"
	err := bs.Step(ctx, func(txn nft.Txn) error {
		return txn.WriteEscrow(&nft.Escrow{
			Account:     account,
			Balance:     decimal.RequireFromString("12.5"),
			Held:        decimal.RequireFromString("2"),
			Outstanding: 3,
		})
	})
	if err != nil {
		t.Fatalf("WriteEscrow() => %v", err)
	}
	err = bs.Step(ctx, func(txn nft.Txn) error {
		e, err := txn.ReadEscrow(account)
		if err != nil {
			return err
		}
		if e == nil || !e.Balance.Equal(decimal.RequireFromString("12.5")) || !e.Held.Equal(decimal.NewFromInt(2)) || e.Outstanding != 3 {
			t.Fatalf("ReadEscrow() => %v", e)
		}
		if !e.Available().Equal(decimal.RequireFromString("10.5")) {
			t.Fatalf("Available() => %s", e.Available())
		}
		return txn.DeleteEscrow(account)
	})
	if err != nil {
		t.Fatalf("Step() => %v", err)
	}
	err = bs.View(ctx, func(txn nft.Txn) error {
		e, err := txn.ReadEscrow(account)
		if e != nil {
			t.Fatalf("ReadEscrow() => %v after delete", e)
		}
		return err
	})
	if err != nil {
		t.Fatalf("View() => %v", err)
	}
}

func TestWhitelistOrder(t *testing.T) {
	bs := testBadgerStore(t)
	ctx := context.Background()

	accounts := []string{
		"f3c6e6a4-8a42-4a4b-8f4e-2d8b6b0b7e01",
		"0b4e5c2a-1d7f-4e8a-9b3c-5a6d7e8f9a02",
		"7d2c1b0a-9e8f-4a7b-8c6d-5e4f3a2b1c03",
	}
	for _, a := range accounts {
		err := bs.Step(ctx, func(txn nft.Txn) error {
			return txn.WriteWhitelistEntry(&nft.WhitelistEntry{
				Account: a,
				Price:   decimal.NewFromInt(50),
				Cap:     3,
			})
		})
		if err != nil {
			t.Fatalf("WriteWhitelistEntry(%s) => %v", a, err)
		}
	}

	err := bs.Step(ctx, func(txn nft.Txn) error {
		entries, err := txn.ListWhitelistEntries(0, 10)
		if err != nil {
			return err
		}
		if len(entries) != 3 {
			t.Fatalf("ListWhitelistEntries() => %d", len(entries))
		}
		for i, e := range entries {
			if e.Account != accounts[i] || e.Sequence != uint64(i+1) {
				t.Fatalf("entry %d => %s %d", i, e.Account, e.Sequence)
			}
		}
		page, err := txn.ListWhitelistEntries(1, 1)
		if err != nil {
			return err
		}
		if len(page) != 1 || page[0].Account != accounts[1] {
			t.Fatalf("ListWhitelistEntries(1, 1) => %v", page)
		}
		return txn.DeleteWhitelistEntry(accounts[1])
	})
	if err != nil {
		t.Fatalf("Step() => %v", err)
	}

	err = bs.View(ctx, func(txn nft.Txn) error {
		entries, err := txn.ListWhitelistEntries(0, 10)
		if err != nil {
			return err
		}
		if len(entries) != 2 || entries[0].Account != accounts[0] || entries[1].Account != accounts[2] {
			t.Fatalf("ListWhitelistEntries() => %v", entries)
		}
		e, err := txn.ReadWhitelistEntry(accounts[1])
		if e != nil {
			t.Fatalf("ReadWhitelistEntry() => %v after delete", e)
		}
		return err
	})
	if err != nil {
		t.Fatalf("View() => %v", err)
	}
}

func TestBatchStateIndex(t *testing.T) {
	bs := testBadgerStore(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	var ids []uint64
	for i := 0; i < 3; i++ {
		err := bs.Step(ctx, func(txn nft.Txn) error {
			id, err := txn.NextBatchId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return txn.WriteBatch(&nft.Batch{
				Id:        id,
				Quantity:  uint64(i + 1),
				Cost:      decimal.RequireFromString("0.5"),
				Mode:      nft.CommitOptimistic,
				Items:     []*nft.Item{{Sequence: uint64(100 - i)}},
				State:     nft.BatchStateReserved,
				CreatedAt: now,
				UpdatedAt: now,
			})
		})
		if err != nil {
			t.Fatalf("WriteBatch() => %v", err)
		}
	}
	if ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("NextBatchId() => %v", ids)
	}

	reserved, err := bs.ListBatches(nft.BatchStateReserved, 0)
	if err != nil || len(reserved) != 3 {
		t.Fatalf("ListBatches(reserved) => %d %v", len(reserved), err)
	}
	if reserved[0].Id != 1 || reserved[0].Items[0].Sequence != 100 {
		t.Fatalf("ListBatches(reserved) => %v", reserved[0])
	}

	err = bs.Step(ctx, func(txn nft.Txn) error {
		b, err := txn.ReadBatch(2)
		if err != nil {
			return err
		}
		b.State = nft.BatchStateSettled
		return txn.WriteBatch(b)
	})
	if err != nil {
		t.Fatalf("WriteBatch() => %v", err)
	}
	reserved, _ = bs.ListBatches(nft.BatchStateReserved, 0)
	settled, _ := bs.ListBatches(nft.BatchStateSettled, 0)
	if len(reserved) != 2 || len(settled) != 1 || settled[0].Id != 2 {
		t.Fatalf("ListBatches() => %d %d", len(reserved), len(settled))
	}
	limited, _ := bs.ListBatches(nft.BatchStateReserved, 1)
	if len(limited) != 1 || limited[0].Id != 1 {
		t.Fatalf("ListBatches(limit 1) => %v", limited)
	}

	for _, state := range []int{nft.BatchStateReserved, nft.BatchStatePartial} {
		err = bs.Step(ctx, func(txn nft.Txn) error {
			b, err := txn.ReadBatch(3)
			if err != nil {
				return err
			}
			b.Acknowledged = 1
			b.State = state
			return txn.WriteBatch(b)
		})
		if err != nil {
			t.Fatalf("WriteBatch(%d) => %v", state, err)
		}
		reserved, _ = bs.ListBatches(nft.BatchStateReserved, 0)
		if state == nft.BatchStateReserved && (len(reserved) != 2 || reserved[1].Acknowledged != 1) {
			t.Fatalf("ListBatches(reserved) => %v", reserved)
		}
	}
	partial, _ := bs.ListBatches(nft.BatchStatePartial, 0)
	if len(reserved) != 1 || len(partial) != 1 || partial[0].Acknowledged != 1 {
		t.Fatalf("ListBatches() => %d %d", len(reserved), len(partial))
	}
}

func TestRevenueAndReceipt(t *testing.T) {
	bs := testBadgerStore(t)
	ctx := context.Background()

	asset := "9b180ab6-6abe-3dc0-a13f-04169eb34bfa"
	trace := "5f9c8b1e-2a3d-4c5b-8e7f-1a2b3c4d5e6f"
	err := bs.Step(ctx, func(txn nft.Txn) error {
		r, err := txn.ReadRevenue(asset)
		if err != nil {
			return err
		}
		if !r.IsZero() {
			t.Fatalf("ReadRevenue() => %s", r)
		}
		err = txn.WriteRevenue(asset, decimal.RequireFromString("300.25"))
		if err != nil {
			return err
		}
		return txn.WriteReceipt(&nft.Receipt{
			TraceId: trace,
			Kind:    "mint",
			Phase:   nft.PhasePublic,
			BatchId: 7,
			Transfers: []*nft.Transfer{{
				Purpose: "refund",
				Asset:   asset,
				Amount:  decimal.NewFromInt(1),
			}},
		})
	})
	if err != nil {
		t.Fatalf("Step() => %v", err)
	}
	err = bs.View(ctx, func(txn nft.Txn) error {
		r, err := txn.ReadRevenue(asset)
		if err != nil || !r.Equal(decimal.RequireFromString("300.25")) {
			t.Fatalf("ReadRevenue() => %s %v", r, err)
		}
		rec, err := txn.ReadReceipt(trace)
		if err != nil || rec == nil {
			t.Fatalf("ReadReceipt() => %v %v", rec, err)
		}
		if rec.BatchId != 7 || rec.Phase != nft.PhasePublic || len(rec.Transfers) != 1 || !rec.Transfers[0].Amount.Equal(decimal.NewFromInt(1)) {
			t.Fatalf("ReadReceipt() => %v", rec)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() => %v", err)
	}
}

func TestOutputLifecycle(t *testing.T) {
	bs := testBadgerStore(t)

	now := time.Now()
	out := &mtg.Output{
		UTXOID:    "c2d1e0f9-8a7b-4c6d-9e5f-0a1b2c3d4e5f",
		AssetID:   "9b180ab6-6abe-3dc0-a13f-04169eb34bfa",
		Sender:    "0a1b7c52-3b3d-4b2e-9c4a-6e1f2d3c4b5a",
		Amount:    decimal.NewFromInt(100),
		State:     mtg.OutputStateUnspent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := bs.WriteOutput(out)
	if err != nil {
		t.Fatalf("WriteOutput() => %v", err)
	}
	outs, err := bs.ListOutputs(mtg.OutputStateUnspent, 10)
	if err != nil || len(outs) != 1 || !outs[0].Amount.Equal(out.Amount) {
		t.Fatalf("ListOutputs(unspent) => %v %v", outs, err)
	}

	out.State = mtg.OutputStateSpent
	out.UpdatedAt = now.Add(time.Second)
	err = bs.WriteOutput(out)
	if err != nil {
		t.Fatalf("WriteOutput() => %v", err)
	}
	outs, _ = bs.ListOutputs(mtg.OutputStateUnspent, 10)
	if len(outs) != 0 {
		t.Fatalf("ListOutputs(unspent) => %d", len(outs))
	}
	outs, _ = bs.ListOutputs(mtg.OutputStateSpent, 10)
	if len(outs) != 1 {
		t.Fatalf("ListOutputs(spent) => %d", len(outs))
	}

	err = bs.WriteAction(&mtg.Action{UTXOID: out.UTXOID, CreatedAt: now, State: mtg.ActionStateDone})
	if err != nil {
		t.Fatalf("WriteAction() => %v", err)
	}
	err = bs.WriteAction(&mtg.Action{UTXOID: out.UTXOID, CreatedAt: now, State: mtg.ActionStateInitial})
	if err != nil {
		t.Fatalf("WriteAction() => %v", err)
	}
	act, err := bs.ReadAction(out.UTXOID)
	if err != nil || act == nil || act.State != mtg.ActionStateDone {
		t.Fatalf("ReadAction() => %v %v", act, err)
	}

	parked := "d3e2f1a0-9b8c-4d7e-8f6a-5b4c3d2e1f0a"
	err = bs.WriteAction(&mtg.Action{UTXOID: parked, CreatedAt: now, State: mtg.ActionStateParked})
	if err != nil {
		t.Fatalf("WriteAction(parked) => %v", err)
	}
	act, err = bs.ReadAction(parked)
	if err != nil || act == nil || act.State != mtg.ActionStateParked {
		t.Fatalf("ReadAction(parked) => %v %v", act, err)
	}
}

func TestTransactionStates(t *testing.T) {
	bs := testBadgerStore(t)

	now := time.Now()
	tx := &mtg.Transaction{
		TraceId:   "1c2b3a49-5867-4d3e-8f1a-2b3c4d5e6f70",
		State:     mtg.TransactionStateInitial,
		AssetId:   "9b180ab6-6abe-3dc0-a13f-04169eb34bfa",
		Receiver:  "0a1b7c52-3b3d-4b2e-9c4a-6e1f2d3c4b5a",
		Amount:    "100",
		Memo:      "refund",
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := bs.WriteTransaction(tx)
	if err != nil {
		t.Fatalf("WriteTransaction() => %v", err)
	}
	other := *tx
	other.TraceId = "4a5b6c7d-8e9f-4a0b-9c1d-2e3f4a5b6c7d"
	other.UpdatedAt = now.Add(time.Second)
	err = bs.WriteTransaction(&other)
	if err != nil {
		t.Fatalf("WriteTransaction() => %v", err)
	}
	txs, err := bs.ListTransactions(mtg.TransactionStateInitial, 10)
	if err != nil || len(txs) != 2 || txs[0].TraceId != tx.TraceId || txs[0].Memo != "refund" {
		t.Fatalf("ListTransactions(initial) => %v %v", txs, err)
	}

	tx.UpdatedAt = now.Add(2 * time.Second)
	err = bs.WriteTransaction(tx)
	if err != nil {
		t.Fatalf("WriteTransaction() => %v", err)
	}
	txs, _ = bs.ListTransactions(mtg.TransactionStateInitial, 10)
	if len(txs) != 2 || txs[0].TraceId != other.TraceId || txs[1].TraceId != tx.TraceId {
		t.Fatalf("ListTransactions(initial) after retry => %v", txs)
	}

	tx.State = mtg.TransactionStateDone
	err = bs.WriteTransaction(tx)
	if err != nil {
		t.Fatalf("WriteTransaction() => %v", err)
	}
	txs, _ = bs.ListTransactions(mtg.TransactionStateInitial, 10)
	if len(txs) != 1 {
		t.Fatalf("ListTransactions(initial) => %d", len(txs))
	}
	old, err := bs.ReadTransaction(tx.TraceId)
	if err != nil || old.State != mtg.TransactionStateDone {
		t.Fatalf("ReadTransaction() => %v %v", old, err)
	}
}

func TestProperty(t *testing.T) {
	bs := testBadgerStore(t)
	val, err := bs.ReadProperty([]byte("missing"))
	if err != nil || val != nil {
		t.Fatalf("ReadProperty(missing) => %v %v", val, err)
	}
	err = bs.WriteProperty([]byte("key"), []byte("val"))
	if err != nil {
		t.Fatalf("WriteProperty() => %v", err)
	}
	val, err = bs.ReadProperty([]byte("key"))
	if err != nil || string(val) != "val" {
		t.Fatalf("ReadProperty() => %s %v", val, err)
	}
}
