package nft

import (
	"context"
	"errors"
	"testing"
)

func TestPrepayAccumulates(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMinter(t, CommitOptimistic)
	mustPrepay(t, m, aliceId, "1.5")
	mustPrepay(t, m, aliceId, "2.25")

	e, err := m.BalanceOf(ctx, aliceId)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !e.Balance.Equal(dec("3.75")) {
		t.Fatalf("expected 3.75, got %s", e.Balance)
	}
}

func TestPrepayMinimum(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMinter(t, CommitOptimistic)
	_, err := m.Prepay(ctx, aliceId, dec("0.1"))
	if !errors.Is(err, ErrDepositTooSmall) {
		t.Fatalf("expected deposit too small, got %v", err)
	}
	_, err = m.Prepay(ctx, "alice", dec("1"))
	if !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected invalid account, got %v", err)
	}
}

func TestWithdrawAll(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMinter(t, CommitOptimistic)

	_, err := m.WithdrawAll(ctx, aliceId)
	if !errors.Is(err, ErrNoEscrow) {
		t.Fatalf("expected no escrow, got %v", err)
	}
	mustPrepay(t, m, aliceId, "4")
	amount, err := m.WithdrawAll(ctx, aliceId)
	if err != nil || !amount.Equal(dec("4")) {
		t.Fatalf("withdraw: %s %v", amount, err)
	}
	e, err := m.BalanceOf(ctx, aliceId)
	if err != nil || e != nil {
		t.Fatalf("expected cleared balance, got %+v %v", e, err)
	}
}

func TestWithdrawEmptyBalance(t *testing.T) {
	ctx := context.Background()
	m, ms := newTestMinter(t, CommitOptimistic)
	mustPrepay(t, m, aliceId, "1")
	ms.state.escrow[aliceId] = Escrow{Account: aliceId}

	_, err := m.WithdrawAll(ctx, aliceId)
	if !errors.Is(err, ErrEmptyBalance) {
		t.Fatalf("expected empty balance, got %v", err)
	}
}

func TestInsufficientEscrowRejectsWholeRequest(t *testing.T) {
	ctx := context.Background()
	m, ms := newTestMinter(t, CommitOptimistic)
	mustPrepay(t, m, aliceId, "1")

	r, err := m.OnPayment(ctx, mintPayment("3b1f6f11-2c4d-4b7a-93a5-1c3b8f6a7e90", aliceId, usdcId, "300", `{"mint":{"quantity":3}}`), duringPub)
	if !errors.Is(err, ErrInsufficientEscrow) {
		t.Fatalf("expected insufficient escrow, got %v", err)
	}
	if len(r.Transfers) != 1 || !r.Transfers[0].Amount.Equal(dec("300")) {
		t.Fatalf("expected refund, got %+v", r.Transfers)
	}
	if e := ms.state.escrow[aliceId]; !e.Balance.Equal(dec("1")) {
		t.Fatalf("escrow partially debited %s", e.Balance)
	}
	if _, ok := ms.state.minted[aliceId]; ok {
		t.Fatalf("quota committed for a rejected request")
	}
}

func TestCollectRevenue(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMinter(t, CommitOptimistic)
	dispatchFour(t, m)

	if err := m.Collect(ctx, aliceId, usdtId, dec("100")); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
	if err := m.Collect(ctx, adminId, usdtId, dec("500")); !errors.Is(err, ErrInsufficientRevenue) {
		t.Fatalf("expected insufficient revenue, got %v", err)
	}
	for _, amt := range []string{"0", "0.000000001", "1.123456789"} {
		if err := m.Collect(ctx, adminId, usdtId, dec(amt)); !errors.Is(err, ErrMalformedInstruction) {
			t.Fatalf("collect %s should be malformed, got %v", amt, err)
		}
	}
	if err := m.Collect(ctx, adminId, usdtId, dec("150")); err != nil {
		t.Fatalf("collect: %v", err)
	}
	rev, err := m.Revenue(ctx, usdtId)
	if err != nil || !rev.Equal(dec("250")) {
		t.Fatalf("unexpected revenue %s %v", rev, err)
	}
}
