package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/packmint/issuer"
	"github.com/MixinNetwork/packmint/mtg"
	"github.com/MixinNetwork/packmint/nft"
	"github.com/MixinNetwork/packmint/store"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bp := flag.String("d", "~/.mixin/packmint/data", "database directory path")
	cp := flag.String("c", "~/.mixin/packmint/config.toml", "configuration file path")
	lv := flag.Int("l", logger.INFO, "log level")
	flag.Parse()

	logger.SetLevel(*lv)

	conf, err := mtg.Setup(expandHome(*cp))
	if err != nil {
		panic(err)
	}
	sale, err := saleFromConfiguration(&conf.Sale)
	if err != nil {
		panic(err)
	}

	db, err := store.OpenBadger(ctx, expandHome(*bp))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	minter, err := nft.NewMinter(ctx, db, sale)
	if err != nil {
		panic(err)
	}
	transferer, err := NewMixinTransferer(ctx, &conf.App)
	if err != nil {
		panic(err)
	}
	group, err := mtg.BuildGroup(ctx, db, transferer)
	if err != nil {
		panic(err)
	}
	metrics := NewMetrics(minter)
	group.AddWorker(NewMintWorker(group, minter, metrics))

	client := issuer.NewClient(conf.Issuer.Endpoint, conf.Issuer.Token, time.Duration(conf.Issuer.Timeout)*time.Second)
	batches := NewBatchWorker(minter, client, conf.Issuer.Batch, metrics)

	api := NewAPI(group, minter, metrics, &conf.HTTP)
	server := &http.Server{
		Addr:              conf.HTTP.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return group.Run(ctx)
	})
	g.Go(func() error {
		return batches.Run(ctx)
	})
	g.Go(func() error {
		logger.Printf("HTTP API listening on %s\n", server.Addr)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(sctx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("packmint stopped => %v\n", err)
		os.Exit(1)
	}
}

func saleFromConfiguration(sc *mtg.SaleConfiguration) (*nft.SaleConfig, error) {
	price, err := decimal.NewFromString(sc.Price)
	if err != nil {
		return nil, err
	}
	cost, err := decimal.NewFromString(sc.StorageCost)
	if err != nil {
		return nil, err
	}
	sale := &nft.SaleConfig{
		Admin:         sc.Admin,
		PaymentAssets: sc.PaymentAssets,
		EscrowAsset:   sc.EscrowAsset,
		Price:         price,
		StorageCost:   cost,
		PrivateStart:  sc.PrivateStart,
		PublicStart:   sc.PublicStart,
		Supply:        sc.Supply,
		Collection:    sc.Collection,
		Template: nft.Metadata{
			Title:       sc.Title,
			Description: sc.Description,
			Media:       sc.Media,
			Reference:   sc.Reference,
		},
		Mode: nft.CommitMode(sc.Mode),
	}
	return sale, sale.Validate()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		panic(err)
	}
	return filepath.Join(usr.HomeDir, path[2:])
}
