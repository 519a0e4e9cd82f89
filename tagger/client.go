// Package tagger calls the Masaryk University language services tagger to
// find the base form of a line.
package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"wordforms.dev/declensions/logger"
	"wordforms.dev/declensions/types"
)

var ErrMalformedResponse = errors.New("malformed tagger response")

const (
	lemmaRow    = 1
	lemmaColumn = 1
)

type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
	dflLogger  zerolog.Logger
}

func New(service types.AnnotationService) *Client {
	timeout := service.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewWithHTTPClient(service, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(service types.AnnotationService, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    service.URL,
		language:   service.Language,
		httpClient: httpClient,
		dflLogger:  logger.NewLogger("Tagger"),
	}
}

type taggerResponse struct {
	Vertical [][]string `json:"vertical"`
}

// Lemma returns the lemma of the first token of line. An empty string means
// the tagger produced no token for it.
func (c *Client) Lemma(ctx context.Context, line string) (string, error) {
	reqURL, err := c.requestURL(line)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("tagger: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tagger: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tagger: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tagger: read body: %w", err)
	}

	lemma, err := parseLemma(body)
	if err != nil {
		return "", err
	}
	c.dflLogger.Debug().Str("line", line).Str("lemma", lemma).Msg("Tagged line")
	return lemma, nil
}

func (c *Client) requestURL(line string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("tagger: parse url: %w", err)
	}
	query := u.Query()
	query.Set("call", "tagger")
	query.Set("lang", c.language)
	query.Set("output", "json")
	query.Set("text", line)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func parseLemma(body []byte) (string, error) {
	var response taggerResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if response.Vertical == nil {
		return "", fmt.Errorf("%w: no vertical", ErrMalformedResponse)
	}
	if len(response.Vertical) <= lemmaRow || len(response.Vertical[lemmaRow]) <= lemmaColumn {
		return "", nil
	}
	return response.Vertical[lemmaRow][lemmaColumn], nil
}
