package toncenter

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

	"sbtid-verifier-bot/internal/common/logger"
	"sbtid-verifier-bot/internal/common/metrics"
)

// StatusError reports a non-2xx reply from the RPC endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected upstream status %d", e.Code)
}

// APIError reports an ok:false envelope with the error text the endpoint gave.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrInvalidResponse covers replies whose body cannot be decoded or whose
// result payload is missing.
var ErrInvalidResponse = errors.New("invalid response from blockchain")

// Client issues read-only queries against a toncenter-compatible RPC endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *seqnoCache
}

func NewClient(endpoint string, cacheTTL time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxConnsPerHost:     10,
				MaxIdleConnsPerHost: 10,
			},
		},
		baseURL: strings.TrimRight(endpoint, "/"),
		cache:   newSeqnoCache(cacheTTL),
	}
}

type runGetMethodRequest struct {
	Address string     `json:"address"`
	Method  string     `json:"method"`
	Stack   [][]string `json:"stack"`
	Seqno   int64      `json:"seqno"`
}

// CurrentSeqno returns the masterchain tip used to pin read queries. Fresh
// cached values are served without a network call. When a refresh fails the
// last known value (zero if never fetched) is returned and the cache window
// is not extended, so the next call retries upstream right away.
func (c *Client) CurrentSeqno(ctx context.Context) int64 {
	if v, fresh := c.cache.get(); fresh {
		metrics.SeqnoCacheHits.Inc()
		return v
	}

	seqno, err := c.fetchMasterchainSeqno(ctx)
	if err != nil {
		metrics.SeqnoCacheRefreshes.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Msg("Failed to refresh masterchain seqno, using last known value")
		return c.cache.stale()
	}

	metrics.SeqnoCacheRefreshes.WithLabelValues("ok").Inc()
	stored := c.cache.put(seqno)
	logger.Debug().Int64("seqno", stored).Msg("Current blockchain seqno")
	return stored
}

// Ping checks that the RPC endpoint answers getMasterchainInfo, for
// readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetchMasterchainSeqno(ctx)
	return err
}

func (c *Client) fetchMasterchainSeqno(ctx context.Context) (int64, error) {
	var info masterchainInfo
	if err := c.doGet(ctx, "getMasterchainInfo", nil, &info); err != nil {
		return 0, err
	}
	if info.Last.Seqno == 0 {
		return 0, fmt.Errorf("%w: missing seqno", ErrInvalidResponse)
	}
	return info.Last.Seqno, nil
}

// RunGetMethod invokes a read-only contract method pinned to the given seqno.
// The result object may legitimately omit exit_code and stack; classifying
// those shapes is the caller's job.
func (c *Client) RunGetMethod(ctx context.Context, contract, method string, stack [][]string, seqno int64) (*RunResult, error) {
	payload := runGetMethodRequest{
		Address: contract,
		Method:  method,
		Stack:   stack,
		Seqno:   seqno,
	}

	var result RunResult
	if err := c.doPost(ctx, "runGetMethod", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IsAddressActive reports whether the account at the given address is in the
// "active" state. Every failure counts as not active.
func (c *Client) IsAddressActive(ctx context.Context, address string) bool {
	params := url.Values{"address": {address}}

	var state string
	if err := c.doGet(ctx, "getAddressState", params, &state); err != nil {
		logger.Warn().Err(err).Str("address", address).Msg("Address state check failed")
		return false
	}
	return state == "active"
}

func (c *Client) doGet(ctx context.Context, method string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, method)
	if len(params) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	return c.doRequest(method, req, out)
}

func (c *Client) doPost(ctx context.Context, method string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.baseURL, method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("accept", "application/json")

	return c.doRequest(method, req, out)
}

func (c *Client) doRequest(method string, req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TonRequests.WithLabelValues(method, "network_error").Inc()
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TonRequests.WithLabelValues(method, "network_error").Inc()
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.TonRequests.WithLabelValues(method, "http_error").Inc()
		return &StatusError{Code: resp.StatusCode}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		metrics.TonRequests.WithLabelValues(method, "bad_shape").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if !env.Ok {
		metrics.TonRequests.WithLabelValues(method, "api_error").Inc()
		msg := env.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return &APIError{Message: msg}
	}

	if out != nil {
		if len(env.Result) == 0 || string(env.Result) == "null" {
			metrics.TonRequests.WithLabelValues(method, "bad_shape").Inc()
			return ErrInvalidResponse
		}
		if err := json.Unmarshal(env.Result, out); err != nil {
			metrics.TonRequests.WithLabelValues(method, "bad_shape").Inc()
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	metrics.TonRequests.WithLabelValues(method, "ok").Inc()
	return nil
}
