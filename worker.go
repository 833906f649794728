package main

import (
	"context"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/packmint/mtg"
	"github.com/MixinNetwork/packmint/nft"
	"github.com/fox-one/mixin-sdk-go"
)

// MintWorker turns every output into a payment for the minter, and every
// transfer of the resulting receipt into a group transaction.
type MintWorker struct {
	grp     *mtg.Group
	minter  *nft.Minter
	metrics *Metrics
}

func NewMintWorker(grp *mtg.Group, minter *nft.Minter, metrics *Metrics) *MintWorker {
	return &MintWorker{
		grp:     grp,
		minter:  minter,
		metrics: metrics,
	}
}

func (mw *MintWorker) ProcessOutput(ctx context.Context, out *mtg.Output) error {
	pay := &nft.Payment{
		TraceId: out.UTXOID,
		Sender:  out.Sender,
		Asset:   out.AssetID,
		Amount:  out.Amount,
		Memo:    out.Memo,
	}
	receipt, err := mw.minter.OnPayment(ctx, pay, mw.grp.Now())
	if receipt == nil {
		return err
	}
	if err != nil {
		logger.Verbosef("MintWorker.ProcessOutput(%s) rejected => %v\n", out.UTXOID, err)
	}
	mw.metrics.observeReceipt(receipt)

	for _, t := range receipt.Transfers {
		traceId := mixin.UniqueConversationID(out.UTXOID, t.Purpose)
		err := mw.grp.BuildTransaction(ctx, t.Asset, t.Receiver, t.Amount.String(), t.Purpose, traceId)
		if err != nil {
			return err
		}
	}
	return nil
}

// BatchWorker drives reserved batches through the issuer until ctx is
// cancelled.
type BatchWorker struct {
	minter  *nft.Minter
	issuer  nft.Issuer
	limit   int
	metrics *Metrics
}

func NewBatchWorker(minter *nft.Minter, issuer nft.Issuer, limit int, metrics *Metrics) *BatchWorker {
	return &BatchWorker{
		minter:  minter,
		issuer:  issuer,
		limit:   limit,
		metrics: metrics,
	}
}

func (bw *BatchWorker) Run(ctx context.Context) error {
	for {
		n, err := bw.minter.ProcessBatches(ctx, bw.issuer, bw.limit)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Printf("Minter.ProcessBatches() => %v\n", err)
		}
		bw.metrics.batches.Add(float64(n))
		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
	}
}
