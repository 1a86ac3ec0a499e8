package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher turns a URL into page source. Implementations must treat an
// anti-scrape challenge as an empty page, not an error, so a blocked site
// looks like a site with nothing new.
type Fetcher interface {
	Fetch(ctx context.Context, url string, waitSelector string) (string, error)
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var challengeMarkers = []string{
	"captcha",
	"are you a robot",
	"cf-browser-verification",
	"access denied",
	"unusual traffic",
}

func looksLikeChallenge(statusCode int, body string) bool {
	if statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable {
		return true
	}
	lowered := strings.ToLower(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// PageFetcher fetches pages over plain HTTP with a shared outbound rate
// limit. It ignores the wait selector; that only matters for rendered pages.
type PageFetcher struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	userAgent   string
}

func NewPageFetcher() *PageFetcher {
	return &PageFetcher{httpClient: &http.Client{}, userAgent: defaultUserAgent}
}

func (f *PageFetcher) SetHTTPClient(client HTTPClient) {
	f.httpClient = client
}

func (f *PageFetcher) SetRateLimit(maxRequestsPerSecond float32) {
	f.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (f *PageFetcher) Fetch(ctx context.Context, url string, _ string) (string, error) {

	if f.rateLimiter != nil {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "error creating request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "error sending request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "error reading response body")
	}

	if looksLikeChallenge(resp.StatusCode, string(body)) {
		log.Warnf("anti-scrape challenge from %v (status %v), treating as empty page", url, resp.StatusCode)
		return "", nil
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("request failed with status %v", resp.StatusCode)
	}

	return string(body), nil
}

// RenderingFetcher delegates to a headless-render service for pages that
// only produce their listing markup after executing scripts. The service
// waits for the given selector and returns that subtree's HTML.
type RenderingFetcher struct {
	httpClient  HTTPClient
	endpoint    string
	rateLimiter *rate.Limiter
}

func NewRenderingFetcher(endpoint string) *RenderingFetcher {
	return &RenderingFetcher{httpClient: &http.Client{}, endpoint: endpoint}
}

func (f *RenderingFetcher) SetHTTPClient(client HTTPClient) {
	f.httpClient = client
}

func (f *RenderingFetcher) SetRateLimit(maxRequestsPerSecond float32) {
	f.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

type renderRequest struct {
	URL             string `json:"url"`
	WaitForSelector string `json:"waitForSelector,omitempty"`
}

type renderResponse struct {
	HTML    string `json:"html"`
	Blocked bool   `json:"blocked"`
}

func (f *RenderingFetcher) Fetch(ctx context.Context, url string, waitSelector string) (string, error) {

	if f.rateLimiter != nil {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	payload, err := json.Marshal(renderRequest{URL: url, WaitForSelector: waitSelector})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "error creating render request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "error calling render service")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "error reading render response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("render service failed with status %v", resp.StatusCode)
	}

	var rendered renderResponse
	if err := json.Unmarshal(body, &rendered); err != nil {
		return "", errors.Wrap(err, "error decoding render response")
	}

	if rendered.Blocked || looksLikeChallenge(http.StatusOK, rendered.HTML) {
		log.Warnf("render service reports %v as blocked, treating as empty page", url)
		return "", nil
	}

	return rendered.HTML, nil
}
