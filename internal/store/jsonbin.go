// Package store persists the reservation ledger as a single JSON
// document in a jsonbin.io-style versioned blob store.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/washweek/washweek/internal/schedule"
)

const defaultBaseURL = "https://api.jsonbin.io/v3"

// Client is the remote store gateway. It offers plain get/put semantics
// with no transactional guarantee: a read-modify-write cycle through it
// is subject to lost updates under concurrent writers.
type Client struct {
	baseURL    string
	binID      string
	masterKey  string
	capacity   int
	periods    *schedule.PeriodManager
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Config collects the gateway's connection settings.
type Config struct {
	// BaseURL overrides the jsonbin API root, mainly for tests.
	BaseURL   string
	BinID     string
	MasterKey string
	Capacity  int
	Timeout   time.Duration
}

// NewClient constructs the gateway.
func NewClient(cfg Config, periods *schedule.PeriodManager, logger *slog.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    base,
		binID:      cfg.BinID,
		masterKey:  cfg.MasterKey,
		capacity:   cfg.Capacity,
		periods:    periods,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// binEnvelope is the GET response shape: the document itself sits under
// "record".
type binEnvelope struct {
	Record json.RawMessage `json:"record"`
}

// Load fetches the ledger document. A missing, empty, or malformed
// document is replaced by a synthesized empty ledger for the current
// period — the caller never sees a malformed-document error. Transport
// and store-side failures surface as ErrStoreUnavailable.
func (c *Client) Load(ctx context.Context) (schedule.Ledger, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.binURL(), nil)
	if err != nil {
		return schedule.Ledger{}, fmt.Errorf("%w: %v", schedule.ErrStoreUnavailable, err)
	}
	req.Header.Set("X-Master-Key", c.masterKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return schedule.Ledger{}, fmt.Errorf("%w: %v", schedule.ErrStoreUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return schedule.Ledger{}, fmt.Errorf("%w: get returned status %d", schedule.ErrStoreUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return schedule.Ledger{}, fmt.Errorf("%w: %v", schedule.ErrStoreUnavailable, err)
	}

	var envelope binEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Record) == 0 {
		c.logger.Warn("store: malformed document envelope, synthesizing empty ledger")
		return c.emptyLedger(), nil
	}
	var ledger schedule.Ledger
	if err := json.Unmarshal(envelope.Record, &ledger); err != nil {
		c.logger.Warn("store: malformed ledger document, synthesizing empty ledger", slog.Any("error", err))
		return c.emptyLedger(), nil
	}
	ledger = ledger.Normalize(c.capacity)
	if ledger.PeriodStart == "" {
		ledger.PeriodStart = c.periods.CurrentPeriodStart(c.now())
	}
	return ledger, nil
}

// Save replaces the remote document with the given ledger. It is a full
// PUT, not a partial patch.
func (c *Client) Save(ctx context.Context, l schedule.Ledger) error {
	payload, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", schedule.ErrStoreUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.binURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", schedule.ErrStoreUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", c.masterKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", schedule.ErrStoreUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: put returned status %d", schedule.ErrStoreUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) binURL() string {
	return fmt.Sprintf("%s/b/%s", c.baseURL, c.binID)
}

func (c *Client) emptyLedger() schedule.Ledger {
	l := schedule.NewLedger(c.capacity)
	l.PeriodStart = c.periods.CurrentPeriodStart(c.now())
	return l
}
