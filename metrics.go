package main

import (
	"context"
	"net/http"

	"github.com/MixinNetwork/packmint/nft"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	payments *prometheus.CounterVec
	batches  prometheus.Counter
}

func NewMetrics(minter *nft.Minter) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packmint",
			Name:      "payments_total",
			Help:      "Payments handled by kind and rejection reason.",
		}, []string{"kind", "reason"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "packmint",
			Name:      "batches_settled_total",
			Help:      "Batches settled after emission.",
		}),
	}
	supply := inventoryGauge(minter, "supply_remaining", "Items not yet minted successfully.", func(inv *nft.Inventory) uint64 {
		return inv.Supply
	})
	sellable := inventoryGauge(minter, "supply_sellable", "Sequence ids still open to admission.", func(inv *nft.Inventory) uint64 {
		return inv.Cursor
	})
	unsellable := inventoryGauge(minter, "supply_unsellable", "Sequence ids burned by failed batches.", func(inv *nft.Inventory) uint64 {
		return inv.Unsellable
	})
	m.registry.MustRegister(m.payments, m.batches, supply, sellable, unsellable)
	return m
}

func inventoryGauge(minter *nft.Minter, name, help string, value func(*nft.Inventory) uint64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "packmint",
		Name:      name,
		Help:      help,
	}, func() float64 {
		inv, err := minter.Inventory(context.Background())
		if err != nil || inv == nil {
			return 0
		}
		return float64(value(inv))
	})
}

func (m *Metrics) observeReceipt(r *nft.Receipt) {
	m.payments.WithLabelValues(r.Kind, r.Reason).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
