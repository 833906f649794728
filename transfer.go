package main

import (
	"context"

	"github.com/MixinNetwork/packmint/mtg"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/shopspring/decimal"
)

// MixinTransferer pays out group transactions from the app wallet.
type MixinTransferer struct {
	client *mixin.Client
	pin    string
}

func NewMixinTransferer(ctx context.Context, conf *mtg.AppConfiguration) (*MixinTransferer, error) {
	s := &mixin.Keystore{
		ClientID:   conf.ClientId,
		SessionID:  conf.SessionId,
		PrivateKey: conf.PrivateKey,
		PinToken:   conf.PinToken,
	}
	client, err := mixin.NewFromKeystore(s)
	if err != nil {
		return nil, err
	}
	err = client.VerifyPin(ctx, conf.PIN)
	if err != nil {
		return nil, err
	}
	return &MixinTransferer{client: client, pin: conf.PIN}, nil
}

func (mt *MixinTransferer) Transfer(ctx context.Context, tx *mtg.Transaction) error {
	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return err
	}
	_, err = mt.client.Transfer(ctx, &mixin.TransferInput{
		AssetID:    tx.AssetId,
		OpponentID: tx.Receiver,
		Amount:     amount,
		TraceID:    tx.TraceId,
		Memo:       tx.Memo,
	}, mt.pin)
	return err
}
