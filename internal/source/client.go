package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"posclean/internal/config"
)

var ErrNoArchiveLink = errors.New("no archive link found")

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *slog.Logger
	backoff    func(attempt int) time.Duration
}

// Download is a fetched archive and the URL it was actually served from.
type Download struct {
	URL  string
	Body []byte
}

func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.HTTPRateLimitRPS),
		logger:     logger,
		backoff:    jitteredBackoff,
	}
}

// Download fetches rawURL. When the server answers with an HTML page instead of an
// archive, the first link to a .zip file on that page is followed once.
func (c *Client) Download(ctx context.Context, rawURL string) (Download, error) {
	if strings.TrimSpace(rawURL) == "" {
		return Download{}, errors.New("missing SOURCE_URL")
	}

	body, contentType, err := c.get(ctx, rawURL)
	if err != nil {
		return Download{}, err
	}
	if !isHTML(contentType, body) {
		return Download{URL: rawURL, Body: body}, nil
	}

	link, err := resolveArchiveLink(rawURL, body)
	if err != nil {
		return Download{}, err
	}
	c.logger.Info("following archive link", slog.String("page", rawURL), slog.String("archive", link))

	body, _, err = c.get(ctx, link)
	if err != nil {
		return Download{}, err
	}
	return Download{URL: link, Body: body}, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	attempts := c.cfg.HTTPMaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, "", err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("download attempt failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < attempts {
				lastErr = fmt.Errorf("source status %d", resp.StatusCode)
				if d := retryAfter(resp.Header.Get("Retry-After")); d > 0 {
					c.limiter.Defer(d)
				}
				c.logger.Warn("retrying download", slog.Int("attempt", attempt), slog.Int("status", resp.StatusCode))
				if err := sleepContext(ctx, c.backoff(attempt)); err != nil {
					return nil, "", err
				}
				continue
			}
			return nil, "", fmt.Errorf("source download error: status=%d url=%s", resp.StatusCode, rawURL)
		}

		return body, resp.Header.Get("Content-Type"), nil
	}

	if lastErr == nil {
		lastErr = errors.New("source request failed")
	}
	return nil, "", lastErr
}

func jitteredBackoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

// retryAfter reads the delay-seconds form of Retry-After. HTTP dates are ignored.
func retryAfter(value string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func isHTML(contentType string, body []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func resolveArchiveLink(pageURL string, page []byte) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || !strings.HasSuffix(strings.ToLower(ref.Path), ".zip") {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})
	if found == "" {
		return "", fmt.Errorf("%w on %s", ErrNoArchiveLink, pageURL)
	}
	return found, nil
}
