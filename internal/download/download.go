// Package download fetches resolved document URLs over plain HTTP,
// decoupled from the browser once a page's links are resolved.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"nfse/internal"
	"nfse/internal/config"
)

// minBodySize guards against error-page HTML served with HTTP 200.
const minBodySize = 100

type Task struct {
	URL  string
	Path string
}

// Client is one per document-set run, seeded with the browser's cookie
// and user-agent snapshot.
type Client struct {
	http      *http.Client
	userAgent string
	workers   int
	timeout   time.Duration
	listeners internal.Listeners
}

func NewClient(sess internal.SessionInfo, cfg config.Config, listeners internal.Listeners) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.SessionPool,
		MaxIdleConnsPerHost: cfg.SessionPool,
	}

	client := &Client{
		http: &http.Client{
			Jar:       jar,
			Transport: &retryTransport{base: transport, attempts: 2, backoff: 100 * time.Millisecond},
		},
		userAgent: sess.UserAgent,
		workers:   cfg.DownloadWorkers,
		timeout:   time.Duration(cfg.DownloadTimeout) * time.Second,
		listeners: listeners,
	}
	if client.userAgent == "" {
		client.userAgent = "Mozilla/5.0"
	}

	client.seedCookies(jar, sess.Cookies, cfg.BaseURL)
	return client, nil
}

// seedCookies is best effort: a cookie whose domain cannot be used is
// retried against the portal base URL, and each fallback is reported.
func (c *Client) seedCookies(jar http.CookieJar, cookies []internal.Cookie, baseURL string) {
	base, baseErr := url.Parse(baseURL)
	for _, ck := range cookies {
		domain := strings.TrimPrefix(ck.Domain, ".")
		target, err := url.Parse("https://" + domain + "/")
		if err != nil || domain == "" {
			c.listeners.Eventf("cookie %s: domínio %q inválido, usando URL base", ck.Name, ck.Domain)
			if baseErr != nil {
				continue
			}
			target = base
		}
		jar.SetCookies(target, []*http.Cookie{{Name: ck.Name, Value: ck.Value}})
	}
}

// FetchAll runs every task through a bounded worker pool and returns
// how many files were written. Individual failures drop the file and
// nothing else; the report generator skips missing files at read time.
func (c *Client) FetchAll(ctx context.Context, tasks []Task) int {
	results := make(chan bool, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, task := range tasks {
		g.Go(func() error {
			results <- c.fetch(gctx, task)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	done := 0
	for ok := range results {
		if ok {
			done++
		}
	}
	return done
}

func (c *Client) fetch(ctx context.Context, task Task) bool {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) <= minBodySize {
		return false
	}
	if err := os.WriteFile(task.Path, body, 0o644); err != nil {
		return false
	}

	if strings.HasSuffix(task.Path, ".pdf") {
		c.verifyPDF(task.Path)
	}
	return true
}

// verifyPDF is a best-effort readability check on the stored file. The
// file is kept either way; the event exists for diagnosability.
func (c *Client) verifyPDF(path string) {
	f, _, err := pdf.Open(path)
	if err != nil {
		c.listeners.Eventf("pdf %s: arquivo baixado não parece legível: %v", path, err)
		return
	}
	_ = f.Close()
}

type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

// RoundTrip retries transient network errors only; HTTP status handling
// stays with the caller.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error
	for attempt := 0; attempt < t.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(t.backoff):
			}
		}
		resp, err = t.base.RoundTrip(req)
		if err == nil {
			return resp, nil
		}
		if req.Body != nil && req.GetBody == nil {
			break
		}
		if req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				break
			}
			req.Body = body
		}
	}
	return nil, fmt.Errorf("requisição %s: %w", req.URL, err)
}
