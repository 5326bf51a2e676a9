// Package web 提供本地浏览器界面：选择目录 -> 调整模板 -> 预览 -> 提交。
package web

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/John-Robertt/imgren/internal/app/session"
)

const DefaultTitle = "imgren"

// KeywordsFunc 从商品页（URL 或本地 HTML 路径）推导基础关键词。
type KeywordsFunc func(ctx context.Context, src string) (string, error)

type Options struct {
	Title string
	// Keywords 为空时页面上的“从商品页提取”不可用。
	Keywords KeywordsFunc
	// Home 是目录选择器的起点（未选择目录时）。
	Home string
	// Addr 是监听地址；除回环地址外，只接受 Host 与它一致的请求。
	Addr string
}

type Server struct {
	sess *session.Session
	tmpl *Templates
	opts Options
}

func NewServer(sess *session.Session, opts Options) (*Server, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	return &Server{sess: sess, tmpl: tmpl, opts: opts}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return securityHeaders(localOnly(s.opts.Addr, mux))
}

// ListenAndServe 阻塞运行直到 ctx 结束（随后优雅关闭）或监听失败。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if s.opts.Addr == "" {
		s.opts.Addr = addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 20 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logStartup(addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) logStartup(addr string) {
	snap := s.sess.Snapshot()
	sep := "-------------------------------------------"
	log.Println(sep)
	log.Printf("  %s", s.opts.Title)
	log.Println(sep)
	log.Printf("  %-12s %s", "Address:", "http://"+addr)
	if snap.Dir != "" {
		log.Printf("  %-12s %s (%d images)", "Folder:", snap.Dir, len(snap.Plan))
	} else {
		log.Printf("  %-12s %s", "Folder:", "(pick in browser)")
	}
	log.Printf("  %-12s keywords=%q start=%d padding=%d date=%v",
		"Template:", snap.Config.BaseKeywords, snap.Config.StartIndex, snap.Config.Padding, snap.Config.IncludeDate)
	log.Println(sep)
}

// securityHeaders 为所有响应加上基础安全头（页面只在本机使用，不加载任何外部资源）。
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; form-action 'self'")
		next.ServeHTTP(w, r)
	})
}

// localOnly 拒绝两类请求：Host 不是本机（DNS rebinding），以及跨站发起的修改请求（GET/HEAD 以外）。
func localOnly(addr string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowedHost(r.Host, addr) {
			http.Error(w, "forbidden host", http.StatusForbidden)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead && crossOrigin(r) {
			http.Error(w, "cross-origin request rejected", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func allowedHost(host, addr string) bool {
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	name = strings.Trim(name, "[]")
	if strings.EqualFold(name, "localhost") {
		return true
	}
	if ip := net.ParseIP(name); ip != nil && ip.IsLoopback() {
		return true
	}
	if addr == "" {
		return false
	}
	if strings.EqualFold(host, addr) {
		return true
	}
	// Host 可能省略端口（如监听 :80），此时按主机名比较。
	if h, _, err := net.SplitHostPort(addr); err == nil && h != "" && !isUnspecified(h) {
		return strings.EqualFold(name, h)
	}
	return false
}

func isUnspecified(h string) bool {
	ip := net.ParseIP(h)
	return ip != nil && ip.IsUnspecified()
}

func crossOrigin(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		// 包括 "null"（沙箱 iframe、file:// 页面）。
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}
