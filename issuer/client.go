package issuer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/packmint/nft"
	"github.com/go-resty/resty/v2"
)

// Client creates collection items through the HTTP API of the remote
// issuer, the trace id of each item is the idempotency key. A conflict
// means the item of the trace id exists already.
type Client struct {
	http *resty.Client
}

type createItemRequest struct {
	TraceId           string       `json:"trace_id"`
	Collection        string       `json:"collection"`
	Sequence          uint64       `json:"sequence"`
	Recipient         string       `json:"recipient"`
	Metadata          nft.Metadata `json:"metadata"`
	Hash              string       `json:"hash"`
	ResidualRecipient string       `json:"residual_recipient,omitempty"`
	Attached          string       `json:"attached"`
}

func NewClient(endpoint, token string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

func (c *Client) CreateItem(ctx context.Context, collection string, item *nft.Item) error {
	body := &createItemRequest{
		TraceId:           item.TraceId,
		Collection:        collection,
		Sequence:          item.Sequence,
		Recipient:         item.Recipient,
		Metadata:          item.Metadata,
		Hash:              item.Hash,
		ResidualRecipient: item.ResidualRecipient,
		Attached:          item.Attached.String(),
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/items")
	if err != nil {
		return err
	}
	code := resp.StatusCode()
	if resp.IsSuccess() || code == http.StatusConflict {
		return nil
	}
	logger.Verbosef("issuer.CreateItem(%s, %d) => %d %s\n", item.TraceId, item.Sequence, code, resp.String())
	if rejected(code) {
		return fmt.Errorf("%w: %s status %d", nft.ErrIssuerRejected, item.TraceId, code)
	}
	return fmt.Errorf("issuer create item %s status %d", item.TraceId, code)
}

// rejected reports whether the status is a definite refusal of the item.
// Server errors and throttling leave the item state unknown.
func rejected(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return code >= 400 && code < 500
}
