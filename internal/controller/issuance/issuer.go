// Package issuance talks to the external signed-URL issuance service. The
// service itself is outside this system; only the client contract lives
// here.
package issuance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SignedURL is a time-bounded, pre-authorized write endpoint. The URL is
// opaque: nothing in this system parses it.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer obtains a signed upload URL for one file. sizeHint may be zero
// when the caller has no idea how large the file is.
type Issuer interface {
	Issue(ctx context.Context, pathSpec string, sizeHint int64) (*SignedURL, error)
}

// HTTPIssuer is the production Issuer: a JSON POST against the issuance
// endpoint.
type HTTPIssuer struct {
	endpoint string
	client   *http.Client
}

func NewHTTPIssuer(endpoint string, timeout time.Duration) *HTTPIssuer {
	return &HTTPIssuer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type issueRequest struct {
	PathSpec string `json:"path_spec"`
	SizeHint int64  `json:"size_hint,omitempty"`
}

func (i *HTTPIssuer) Issue(ctx context.Context, pathSpec string, sizeHint int64) (*SignedURL, error) {
	payload, err := json.Marshal(issueRequest{PathSpec: pathSpec, SizeHint: sizeHint})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("issuance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("issuance service returned %d", resp.StatusCode)
	}

	var signed SignedURL
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return nil, fmt.Errorf("unparseable issuance response: %w", err)
	}
	if signed.URL == "" {
		return nil, fmt.Errorf("issuance response carried no URL")
	}

	return &signed, nil
}
