package nft

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const (
	adminId  = "e9e5b807-fa8b-455a-8dfa-b189d28310ff"
	aliceId  = "2ad8ea1b-8c7c-4b5a-9f2a-7a2f3c6d1e01"
	bobId    = "71b72e67-3636-473a-9ee4-db7ba3094057"
	carolId  = "c6d0c728-2624-429b-8e0d-d9d19b6592fa"
	usdcId   = "9b180ab6-6abe-3dc0-a13f-04169eb34bfa"
	usdtId   = "4d8c508b-91c5-375b-92b0-ee702ed2dac5"
	escrowId = "c94ac88f-4671-3976-b60a-09064f1811e8"
)

var (
	privateStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	publicStart  = privateStart.Add(24 * time.Hour)
	beforeSale   = privateStart.Add(-time.Hour)
	duringPriv   = privateStart.Add(time.Hour)
	duringPub    = publicStart.Add(time.Hour)
)

type memoryStore struct {
	state *memoryState
}

type memoryState struct {
	fingerprint string
	inventory   *Inventory
	whitelist   map[string]WhitelistEntry
	sequence    uint64
	minted      map[string]Minted
	escrow      map[string]Escrow
	batchId     uint64
	batches     map[uint64]Batch
	revenue     map[string]decimal.Decimal
	receipts    map[string]Receipt
}

func newMemoryStore() *memoryStore {
	return &memoryStore{state: &memoryState{
		whitelist: make(map[string]WhitelistEntry),
		minted:    make(map[string]Minted),
		escrow:    make(map[string]Escrow),
		batches:   make(map[uint64]Batch),
		revenue:   make(map[string]decimal.Decimal),
		receipts:  make(map[string]Receipt),
	}}
}

func (s *memoryState) clone() *memoryState {
	c := *s
	if s.inventory != nil {
		inv := *s.inventory
		c.inventory = &inv
	}
	c.whitelist = make(map[string]WhitelistEntry)
	for k, v := range s.whitelist {
		c.whitelist[k] = v
	}
	c.minted = make(map[string]Minted)
	for k, v := range s.minted {
		c.minted[k] = v
	}
	c.escrow = make(map[string]Escrow)
	for k, v := range s.escrow {
		c.escrow[k] = v
	}
	c.batches = make(map[uint64]Batch)
	for k, v := range s.batches {
		c.batches[k] = v
	}
	c.revenue = make(map[string]decimal.Decimal)
	for k, v := range s.revenue {
		c.revenue[k] = v
	}
	c.receipts = make(map[string]Receipt)
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	return &c
}

func (ms *memoryStore) Step(ctx context.Context, fn func(Txn) error) error {
	next := ms.state.clone()
	err := fn(next)
	if err != nil {
		return err
	}
	ms.state = next
	return nil
}

func (ms *memoryStore) View(ctx context.Context, fn func(Txn) error) error {
	return fn(ms.state.clone())
}

func (ms *memoryStore) ListBatches(state int, limit int) ([]*Batch, error) {
	var bs []*Batch
	for _, b := range ms.state.batches {
		if b.State != state {
			continue
		}
		b := b
		bs = append(bs, &b)
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i].Id < bs[j].Id })
	if limit > 0 && len(bs) > limit {
		bs = bs[:limit]
	}
	return bs, nil
}

func (s *memoryState) ReadSaleFingerprint() (string, error) { return s.fingerprint, nil }

func (s *memoryState) WriteSaleFingerprint(fp string) error {
	s.fingerprint = fp
	return nil
}

func (s *memoryState) ReadInventory() (*Inventory, error) {
	if s.inventory == nil {
		return nil, nil
	}
	inv := *s.inventory
	return &inv, nil
}

func (s *memoryState) WriteInventory(inv *Inventory) error {
	c := *inv
	s.inventory = &c
	return nil
}

func (s *memoryState) ReadWhitelistEntry(account string) (*WhitelistEntry, error) {
	e, ok := s.whitelist[account]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *memoryState) WriteWhitelistEntry(e *WhitelistEntry) error {
	if e.Sequence == 0 {
		s.sequence += 1
		e.Sequence = s.sequence
	}
	s.whitelist[e.Account] = *e
	return nil
}

func (s *memoryState) DeleteWhitelistEntry(account string) error {
	delete(s.whitelist, account)
	return nil
}

func (s *memoryState) ListWhitelistEntries(offset, limit int) ([]*WhitelistEntry, error) {
	var es []*WhitelistEntry
	for _, e := range s.whitelist {
		e := e
		es = append(es, &e)
	}
	sort.Slice(es, func(i, j int) bool { return es[i].Sequence < es[j].Sequence })
	if offset >= len(es) {
		return nil, nil
	}
	es = es[offset:]
	if len(es) > limit {
		es = es[:limit]
	}
	return es, nil
}

func (s *memoryState) ReadMinted(account string) (*Minted, error) {
	m, ok := s.minted[account]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *memoryState) WriteMinted(m *Minted) error {
	s.minted[m.Account] = *m
	return nil
}

func (s *memoryState) ReadEscrow(account string) (*Escrow, error) {
	e, ok := s.escrow[account]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *memoryState) WriteEscrow(e *Escrow) error {
	s.escrow[e.Account] = *e
	return nil
}

func (s *memoryState) DeleteEscrow(account string) error {
	delete(s.escrow, account)
	return nil
}

func (s *memoryState) NextBatchId() (uint64, error) {
	s.batchId += 1
	return s.batchId, nil
}

func (s *memoryState) ReadBatch(id uint64) (*Batch, error) {
	b, ok := s.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *memoryState) WriteBatch(b *Batch) error {
	s.batches[b.Id] = *b
	return nil
}

func (s *memoryState) ReadRevenue(asset string) (decimal.Decimal, error) {
	return s.revenue[asset], nil
}

func (s *memoryState) WriteRevenue(asset string, amount decimal.Decimal) error {
	s.revenue[asset] = amount
	return nil
}

func (s *memoryState) ReadReceipt(traceId string) (*Receipt, error) {
	r, ok := s.receipts[traceId]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memoryState) WriteReceipt(r *Receipt) error {
	s.receipts[r.TraceId] = *r
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSale(mode CommitMode) *SaleConfig {
	return &SaleConfig{
		Admin:         adminId,
		PaymentAssets: []string{usdcId, usdtId},
		EscrowAsset:   escrowId,
		Price:         dec("100"),
		StorageCost:   dec("0.5"),
		PrivateStart:  privateStart,
		PublicStart:   publicStart,
		Supply:        5000,
		Collection:    "pack",
		Template:      Metadata{Title: "Pack"},
		Mode:          mode,
	}
}

func newTestMinter(t *testing.T, mode CommitMode) (*Minter, *memoryStore) {
	store := newMemoryStore()
	m, err := NewMinter(context.Background(), store, testSale(mode))
	if err != nil {
		t.Fatalf("new minter: %v", err)
	}
	return m, store
}

func mustPrepay(t *testing.T, m *Minter, account, amount string) {
	if _, err := m.Prepay(context.Background(), account, dec(amount)); err != nil {
		t.Fatalf("prepay %s: %v", account, err)
	}
}

func mustWhitelist(t *testing.T, m *Minter, account, price string, cap uint64) {
	err := m.AddEntry(context.Background(), adminId, &WhitelistEntry{
		Account: account,
		Price:   dec(price),
		Cap:     cap,
	})
	if err != nil {
		t.Fatalf("whitelist %s: %v", account, err)
	}
}

func setSupply(ms *memoryStore, n uint64) {
	ms.state.inventory = &Inventory{Supply: n, Cursor: n}
}
