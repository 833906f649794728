package main

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/packmint/mtg"
	"github.com/MixinNetwork/packmint/nft"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type API struct {
	grp     *mtg.Group
	minter  *nft.Minter
	metrics *Metrics
	token   string
	limiter *rate.Limiter
}

type outputRequest struct {
	UTXOID    string          `json:"utxo_id"`
	AssetID   string          `json:"asset_id"`
	Sender    string          `json:"sender"`
	Amount    decimal.Decimal `json:"amount"`
	Memo      string          `json:"memo"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewAPI(grp *mtg.Group, minter *nft.Minter, metrics *Metrics, conf *mtg.HTTPConfiguration) *API {
	return &API{
		grp:     grp,
		minter:  minter,
		metrics: metrics,
		token:   conf.Token,
		limiter: rate.NewLimiter(rate.Limit(conf.Rate), conf.Burst),
	}
}

func (api *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(api.limit)
	r.With(api.authenticate).Post("/outputs", api.postOutput)
	r.Get("/whitelist", api.getWhitelist)
	r.Get("/escrow/{id}", api.getEscrow)
	r.Get("/minted/{id}", api.getMinted)
	r.Get("/inventory", api.getInventory)
	r.Get("/batches/{id}", api.getBatch)
	r.Method(http.MethodGet, "/metrics", api.metrics.Handler())
	return r
}

func (api *API) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !api.limiter.Allow() {
			renderError(w, http.StatusTooManyRequests, "rate limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (api *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if api.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(api.token)) != 1 {
			renderError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (api *API) postOutput(w http.ResponseWriter, r *http.Request) {
	var req outputRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req)
	if err != nil {
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := &mtg.Output{
		UTXOID:    req.UTXOID,
		AssetID:   req.AssetID,
		Sender:    req.Sender,
		Amount:    req.Amount,
		Memo:      req.Memo,
		CreatedAt: req.CreatedAt,
	}
	err = api.grp.ReceiveOutput(r.Context(), out)
	if err != nil {
		logger.Verbosef("API.postOutput(%s) => %v\n", req.UTXOID, err)
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	render(w, http.StatusAccepted, map[string]string{"utxo_id": out.UTXOID})
}

func (api *API) getWhitelist(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit > 500 {
		limit = 100
	}
	entries, err := api.minter.QuotaPage(r.Context(), offset, limit)
	if err != nil {
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	view := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		view = append(view, map[string]interface{}{
			"account": e.Account,
			"start":   e.Start,
			"price":   e.Price.String(),
			"cap":     e.Cap,
		})
	}
	render(w, http.StatusOK, view)
}

func (api *API) getEscrow(w http.ResponseWriter, r *http.Request) {
	e, err := api.minter.BalanceOf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if e == nil {
		renderError(w, http.StatusNotFound, nft.ErrNoEscrow.Error())
		return
	}
	render(w, http.StatusOK, map[string]interface{}{
		"account":     e.Account,
		"balance":     e.Balance.String(),
		"held":        e.Held.String(),
		"available":   e.Available().String(),
		"outstanding": e.Outstanding,
	})
}

func (api *API) getMinted(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "id")
	m, err := api.minter.MintedOf(r.Context(), account)
	if err != nil {
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		m = &nft.Minted{Account: account}
	}
	render(w, http.StatusOK, map[string]interface{}{
		"account": m.Account,
		"count":   m.Count,
		"pending": m.Pending,
	})
}

func (api *API) getInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := api.minter.Inventory(r.Context())
	if err != nil || inv == nil {
		renderError(w, http.StatusInternalServerError, "inventory unavailable")
		return
	}
	sale := api.minter.Sale()
	render(w, http.StatusOK, map[string]interface{}{
		"supply":     inv.Supply,
		"cursor":     inv.Cursor,
		"sellable":   inv.Cursor,
		"unsellable": inv.Unsellable,
		"phase":      sale.Phase(time.Now()).String(),
		"price":      sale.Price.String(),
	})
}

func (api *API) getBatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := api.minter.ReadBatch(r.Context(), id)
	if err != nil {
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if b == nil {
		renderError(w, http.StatusNotFound, nft.ErrNotFound.Error())
		return
	}
	sequences := make([]uint64, len(b.Items))
	for i, item := range b.Items {
		sequences[i] = item.Sequence
	}
	render(w, http.StatusOK, map[string]interface{}{
		"id":        b.Id,
		"trace_id":  b.TraceId,
		"account":   b.Account,
		"quantity":  b.Quantity,
		"cost":      b.Cost.String(),
		"state":     b.StateName(),
		"sequences": sequences,
	})
}

func render(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"data": v})
}

func renderError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": msg})
}
