// Package upstream defines the wire contract for the pool/wallet HTTP
// API, plus a net/http-backed default implementation. The HTTP client
// transport is treated as an external collaborator consumed as a
// request/response interface: Client is that interface, HTTPClient its
// default implementation.
package upstream

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// MiningInfo is the getMiningInfo response.
type MiningInfo struct {
	Height             uint64
	BaseTarget         uint64
	GenerationSignature [32]byte
	TargetDeadline     uint64 // 0 if the upstream did not send one
}

// SubmitResult is the submitNonce response: either Deadline is populated
// (accepted) or ErrorDescription is (rejected).
type SubmitResult struct {
	Accepted         bool
	Deadline         uint64
	Result           string
	ErrorDescription string
}

// Client is the upstream surface the Puzzle Source and Submitter depend
// on.
type Client interface {
	GetMiningInfo(ctx context.Context) (MiningInfo, error)
	SubmitNonce(ctx context.Context, req SubmitNonceRequest) (SubmitResult, error)
}

// SubmitNonceRequest carries everything the submitNonce endpoint needs,
// including the headers it expects.
type SubmitNonceRequest struct {
	AccountID     uint64
	Nonce         uint64
	Deadline      uint64
	BlockHeight   uint64
	SecretPhrase  string
	CapacityGB    float64
	Hostname      string
	MinerVersion  string
}

// HTTPClient is the default Client, implemented over net/http.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient builds an HTTPClient with the given base URL and timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

type miningInfoResponse struct {
	Height              string `json:"height"`
	BaseTarget          string `json:"baseTarget"`
	GenerationSignature string `json:"generationSignature"`
	TargetDeadline      string `json:"targetDeadline"`
}

func (c *HTTPClient) GetMiningInfo(ctx context.Context) (MiningInfo, error) {
	u := c.BaseURL + "/burst?requestType=getMiningInfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return MiningInfo{}, err
	}
	req.Header.Set("User-Agent", "signum-miner/"+Version)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return MiningInfo{}, fmt.Errorf("upstream: getMiningInfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return MiningInfo{}, fmt.Errorf("upstream: getMiningInfo: status %d", resp.StatusCode)
	}

	var raw miningInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return MiningInfo{}, fmt.Errorf("upstream: getMiningInfo: malformed response: %w", err)
	}

	height, err := strconv.ParseUint(raw.Height, 10, 64)
	if err != nil {
		return MiningInfo{}, fmt.Errorf("upstream: getMiningInfo: bad height: %w", err)
	}
	baseTarget, err := strconv.ParseUint(raw.BaseTarget, 10, 64)
	if err != nil {
		return MiningInfo{}, fmt.Errorf("upstream: getMiningInfo: bad baseTarget: %w", err)
	}
	gensigBytes, err := hex.DecodeString(raw.GenerationSignature)
	if err != nil || len(gensigBytes) != 32 {
		return MiningInfo{}, fmt.Errorf("upstream: getMiningInfo: bad generationSignature")
	}
	var gensig [32]byte
	copy(gensig[:], gensigBytes)

	var targetDeadline uint64
	if raw.TargetDeadline != "" {
		targetDeadline, _ = strconv.ParseUint(raw.TargetDeadline, 10, 64)
	}

	return MiningInfo{
		Height:              height,
		BaseTarget:          baseTarget,
		GenerationSignature: gensig,
		TargetDeadline:      targetDeadline,
	}, nil
}

type submitResponse struct {
	Deadline         string `json:"deadline"`
	Result           string `json:"result"`
	ErrorDescription string `json:"errorDescription"`
}

// Version is reported in the User-Agent header.
const Version = "1.0.0"

func (c *HTTPClient) SubmitNonce(ctx context.Context, r SubmitNonceRequest) (SubmitResult, error) {
	q := url.Values{}
	q.Set("requestType", "submitNonce")
	q.Set("accountId", strconv.FormatUint(r.AccountID, 10))
	q.Set("nonce", strconv.FormatUint(r.Nonce, 10))
	q.Set("deadline", strconv.FormatUint(r.Deadline, 10))
	q.Set("blockheight", strconv.FormatUint(r.BlockHeight, 10))
	q.Set("secretPhrase", r.SecretPhrase)

	u := c.BaseURL + "/burst?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("User-Agent", "signum-miner/"+Version)
	req.Header.Set("X-Capacity", strconv.FormatFloat(r.CapacityGB, 'f', 2, 64))
	req.Header.Set("X-Miner", r.Hostname)
	req.Header.Set("X-Account", strconv.FormatUint(r.AccountID, 10))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("upstream: submitNonce: %w", err)
	}
	defer resp.Body.Close()

	var raw submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return SubmitResult{}, fmt.Errorf("upstream: submitNonce: malformed response: %w", err)
	}
	if raw.ErrorDescription != "" {
		return SubmitResult{Accepted: false, ErrorDescription: raw.ErrorDescription}, nil
	}
	deadline, _ := strconv.ParseUint(raw.Deadline, 10, 64)
	return SubmitResult{Accepted: true, Deadline: deadline, Result: raw.Result}, nil
}
