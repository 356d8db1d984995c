// Package translation implements the client for the asynchronous batch
// document translation service and the mapping of its status vocabulary
// onto the internal job lifecycle.
package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/PlumyCat/trad-bot-src/internal/fault"
)

const (
	batchPath               = "translator/text/batch/v1.1/batches"
	subscriptionKeyHeader   = "Ocp-Apim-Subscription-Key"
	operationLocationHeader = "Operation-Location"
)

type ClientOptions struct {
	Endpoint      string
	Key           string
	SubmitTimeout time.Duration
	PollTimeout   time.Duration
	CancelTimeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the batch translation API. Every call carries its own
// bounded timeout; a timeout on one call never affects another.
type Client struct {
	batchURL      string
	key           string
	httpClient    *http.Client
	submitTimeout time.Duration
	pollTimeout   time.Duration
	cancelTimeout time.Duration
	logger        zerolog.Logger
}

func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	endpoint := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	submitTimeout := opts.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = 30 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 15 * time.Second
	}
	cancelTimeout := opts.CancelTimeout
	if cancelTimeout <= 0 {
		cancelTimeout = 15 * time.Second
	}

	return &Client{
		batchURL:      endpoint + "/" + batchPath,
		key:           opts.Key,
		httpClient:    httpClient,
		submitTimeout: submitTimeout,
		pollTimeout:   pollTimeout,
		cancelTimeout: cancelTimeout,
		logger:        logger,
	}
}

type submissionSource struct {
	SourceURL string `json:"sourceUrl"`
}

type submissionTarget struct {
	TargetURL string `json:"targetUrl"`
	Language  string `json:"language"`
}

type submissionInput struct {
	StorageType string             `json:"storageType"`
	Source      submissionSource   `json:"source"`
	Targets     []submissionTarget `json:"targets"`
}

type submissionBody struct {
	Inputs []submissionInput `json:"inputs"`
}

// Submit starts a batch translation of the document behind sourceURL into
// targetURL and returns the operation handle: the final path segment of the
// operation reference the service answers with. The handle is treated as an
// opaque token everywhere else.
func (c *Client) Submit(ctx context.Context, sourceURL, targetURL, targetLanguage string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("translation client is not initialized")
	}

	body := submissionBody{
		Inputs: []submissionInput{{
			StorageType: "File",
			Source:      submissionSource{SourceURL: sourceURL},
			Targets: []submissionTarget{{
				TargetURL: targetURL,
				Language:  targetLanguage,
			}},
		}},
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", &fault.InternalError{Op: "encode submission body", Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.batchURL, bytes.NewReader(encoded))
	if err != nil {
		return "", &fault.InternalError{Op: "build submission request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(subscriptionKeyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &fault.UpstreamError{System: "translator", Detail: "submission call failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", &fault.UpstreamError{
			System: "translator",
			Status: resp.StatusCode,
			Detail: readBodyText(resp.Body),
		}
	}

	operationRef := resp.Header.Get(operationLocationHeader)
	handle := handleFromOperationRef(operationRef)
	if handle == "" {
		return "", &fault.UpstreamError{
			System: "translator",
			Status: resp.StatusCode,
			Detail: "submission response carries no operation reference",
		}
	}

	c.logger.Info().Str("handle", handle).Str("target_language", targetLanguage).Msg("translation submitted")
	return handle, nil
}

// Poll fetches the raw status payload for an operation handle.
func (c *Client) Poll(ctx context.Context, handle string) (StatusPayload, error) {
	if c == nil {
		return StatusPayload{}, fmt.Errorf("translation client is not initialized")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.batchURL+"/"+handle, nil)
	if err != nil {
		return StatusPayload{}, &fault.InternalError{Op: "build poll request", Err: err}
	}
	req.Header.Set(subscriptionKeyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusPayload{}, &fault.UpstreamError{System: "translator", Detail: "status call failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusPayload{}, &fault.UpstreamError{
			System: "translator",
			Status: resp.StatusCode,
			Detail: readBodyText(resp.Body),
		}
	}

	var payload StatusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return StatusPayload{}, &fault.InternalError{Op: "decode status payload", Err: err}
	}
	return payload, nil
}

// Cancel asks the service to cancel an operation. The outcome is advisory:
// callers record it but do not branch on it.
func (c *Client) Cancel(ctx context.Context, handle string) bool {
	if c == nil {
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cancelTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodDelete, c.batchURL+"/"+handle, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("handle", handle).Msg("build cancel request failed")
		return false
	}
	req.Header.Set(subscriptionKeyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("handle", handle).Msg("translation cancel call failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		c.logger.Warn().Int("status", resp.StatusCode).Str("handle", handle).Msg("translation cancel rejected")
		return false
	}

	c.logger.Info().Str("handle", handle).Msg("translation cancelled upstream")
	return true
}

// handleFromOperationRef extracts the trailing path segment from the
// operation reference. The reference is otherwise treated as opaque.
func handleFromOperationRef(ref string) string {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return ""
	}
	if q := strings.IndexByte(trimmed, '?'); q >= 0 {
		trimmed = trimmed[:q]
	}
	trimmed = strings.TrimSuffix(trimmed, "/")
	if slash := strings.LastIndexByte(trimmed, '/'); slash >= 0 {
		return trimmed[slash+1:]
	}
	return trimmed
}

func readBodyText(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
