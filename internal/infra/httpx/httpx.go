package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultRetryMax = 2
	// 重试之间至少间隔 retryInterval（同一个 client 的所有请求共享）。
	retryInterval = 500 * time.Millisecond

	// MaxPageBytes 限制商品页大小；关键词只来自 <head> 与首个 <h1>，超出部分直接截断。
	MaxPageBytes = 4 << 20
)

// Transport 把“UA 池 + 代理 + 有界重试”固化为统一策略。
//
// 调用方只负责“给出 URL + 解析 HTML”，不关心网络策略细节。
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int

	// Backoff 为空时重试不等待。
	Backoff *rate.Limiter
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var (
		resp    *http.Response
		lastErr error
	)
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 && t.Backoff != nil {
			if err := t.Backoff.Wait(req.Context()); err != nil {
				return nil, err
			}
		}
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", t.ua.random())
		}

		resp, lastErr = t.Base.RoundTrip(r)
		if lastErr == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if req.Context().Err() != nil {
			break
		}
		if lastErr == nil && attempt < max {
			// 网关类错误：丢弃 body 后重试；最后一次尝试的响应原样交给调用方。
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return resp, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// NewPageClient 构造用于抓取商品页（--keywords-from URL）的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理，且禁用 keep-alive（每请求新连接）
// - 内置 UA 池：每个请求随机 UA
// - 有界重试 + 总超时
func NewPageClient(proxyURL string) (*http.Client, error) {
	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	if proxyURL = strings.TrimSpace(proxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
	}

	return &http.Client{
		Transport: &Transport{
			Base:     base,
			ua:       globalUA,
			RetryMax: defaultRetryMax,
			Backoff:  rate.NewLimiter(rate.Every(retryInterval), 1),
		},
		Timeout: defaultTimeout,
	}, nil
}

// FetchPage GET 一个页面并返回 body（最多 MaxPageBytes 字节）。非 2xx 视为错误。
func FetchPage(ctx context.Context, c *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d：%s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes))
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
