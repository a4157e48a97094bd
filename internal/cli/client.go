package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"articlegen/internal/game"
)

// APIError is a non-2xx response. Anything else returned by the client is a
// transport failure and is safe to retry later.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func slotPath(slot string, rest ...string) string {
	p := "/v1/slots/" + url.PathEscape(slot)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (c *Client) Health(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodGet, "/healthz", nil, nil, "")
}

func (c *Client) ListSlots(ctx context.Context) ([]string, error) {
	var out struct {
		Slots []string `json:"slots"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/slots", nil, &out, "")
	return out.Slots, err
}

func (c *Client) CreateSlot(ctx context.Context) (string, error) {
	var out struct {
		Slot string `json:"slot"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/slots", nil, &out, "")
	return out.Slot, err
}

func (c *Client) State(ctx context.Context, slot string) (game.Snapshot, error) {
	var out game.Snapshot
	err := c.jsonRequest(ctx, http.MethodGet, slotPath(slot), nil, &out, "")
	return out, err
}

// ClickPath and friends give the request shape so callers can queue it.
func ClickPath(slot string) string { return slotPath(slot, "click") }
func BuyUnitPath(slot, unit string) string { return slotPath(slot, "units", unit, "buy") }
func PrestigePath(slot string) string { return slotPath(slot, "prestige") }
func ExportPath(slot string) string { return slotPath(slot, "export") }

func (c *Client) Click(ctx context.Context, slot string, count int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, ClickPath(slot), map[string]any{"count": count}, &out, idem)
	return out, err
}

func (c *Client) BuyUnit(ctx context.Context, slot, unit, mode, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, BuyUnitPath(slot, unit), map[string]any{"mode": mode}, &out, idem)
	return out, err
}

func (c *Client) Prestige(ctx context.Context, slot, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, PrestigePath(slot), nil, &out, idem)
	return out, err
}

func (c *Client) Export(ctx context.Context, slot string) (string, error) {
	var out struct {
		Data string `json:"data"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, ExportPath(slot), nil, &out, "")
	return out.Data, err
}

func (c *Client) Do(ctx context.Context, method, path string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	var in any
	if body != nil {
		in = body
	}
	err := c.jsonRequest(ctx, method, path, in, &out, idem)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
