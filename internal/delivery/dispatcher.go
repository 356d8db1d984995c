// Package delivery pushes completed artifacts to a user-scoped drive via an
// identity-provider-authenticated graph API. Delivery is always advisory:
// nothing in here fails the primary result path.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultFolder       = "Translated Documents"
	defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"
	defaultScope        = "https://graph.microsoft.com/.default"

	// Cached credentials are refreshed once fewer than five minutes remain.
	tokenEarlyExpiry = 5 * time.Minute
)

type Options struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	Folder       string
	Enabled      bool

	UploadTimeout time.Duration
	TokenTimeout  time.Duration

	// TokenURL and GraphBaseURL override the provider endpoints, mainly
	// for tests.
	TokenURL     string
	GraphBaseURL string
}

// Result is the structured outcome of one push. Failures are reported here,
// never raised past the dispatcher's boundary.
type Result struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id,omitempty"`
	WebURL  string `json:"web_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Dispatcher struct {
	tokens        oauth2.TokenSource
	httpClient    *http.Client
	graphBaseURL  string
	folder        string
	configured    bool
	enabled       bool
	uploadTimeout time.Duration
	logger        zerolog.Logger
}

func NewDispatcher(opts Options, logger zerolog.Logger) *Dispatcher {
	folder := strings.TrimSpace(opts.Folder)
	if folder == "" {
		folder = defaultFolder
	}
	graphBaseURL := strings.TrimSuffix(strings.TrimSpace(opts.GraphBaseURL), "/")
	if graphBaseURL == "" {
		graphBaseURL = defaultGraphBaseURL
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 60 * time.Second
	}
	tokenTimeout := opts.TokenTimeout
	if tokenTimeout <= 0 {
		tokenTimeout = 30 * time.Second
	}

	configured := opts.ClientID != "" && opts.ClientSecret != "" && opts.TenantID != ""

	d := &Dispatcher{
		httpClient:    &http.Client{Timeout: uploadTimeout},
		graphBaseURL:  graphBaseURL,
		folder:        folder,
		configured:    configured,
		enabled:       opts.Enabled && configured,
		uploadTimeout: uploadTimeout,
		logger:        logger,
	}

	if configured {
		tokenURL := strings.TrimSpace(opts.TokenURL)
		if tokenURL == "" {
			tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", opts.TenantID)
		}
		exchange := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{defaultScope},
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: tokenTimeout})
		d.tokens = oauth2.ReuseTokenSourceWithExpiry(nil, exchange.TokenSource(tokenCtx), tokenEarlyExpiry)
	}

	return d
}

// Configured reports whether the identity provider credentials are present.
func (d *Dispatcher) Configured() bool {
	return d != nil && d.configured
}

// Enabled reports whether pushes should actually run.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.enabled
}

type driveItem struct {
	ID     string `json:"id"`
	WebURL string `json:"webUrl"`
}

// Push uploads content to the owner's drive under the configured folder.
func (d *Dispatcher) Push(ctx context.Context, content []byte, destinationName, ownerID string) Result {
	if d == nil || !d.configured {
		return Result{Error: "delivery is not configured"}
	}
	if !d.enabled {
		return Result{Error: "delivery is disabled"}
	}

	token, err := d.tokens.Token()
	if err != nil {
		d.logger.Warn().Err(err).Msg("delivery token exchange failed")
		return Result{Error: fmt.Sprintf("credential exchange failed: %v", err)}
	}

	uploadURL := fmt.Sprintf("%s/users/%s/drive/root:/%s/%s:/content",
		d.graphBaseURL,
		url.PathEscape(ownerID),
		url.PathEscape(d.folder),
		url.PathEscape(destinationName),
	)

	callCtx, cancel := context.WithTimeout(ctx, d.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPut, uploadURL, bytes.NewReader(content))
	if err != nil {
		return Result{Error: fmt.Sprintf("build upload request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Warn().Err(err).Str("destination", destinationName).Msg("delivery upload failed")
		return Result{Error: fmt.Sprintf("upload failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		d.logger.Warn().Int("status", resp.StatusCode).Str("destination", destinationName).Msg("delivery upload rejected")
		return Result{Error: fmt.Sprintf("upload rejected (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var item driveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return Result{Error: fmt.Sprintf("decode upload response: %v", err)}
	}

	d.logger.Info().Str("destination", destinationName).Str("owner", ownerID).Msg("artifact delivered")
	return Result{Success: true, FileID: item.ID, WebURL: item.WebURL}
}
