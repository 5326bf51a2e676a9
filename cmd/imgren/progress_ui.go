package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/imgren/internal/app/apply"
	"github.com/John-Robertt/imgren/internal/domain"
)

var _ apply.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// - 所有过程信息写到 stderr，不污染 stdout 的 JSON 输出契约
// - 事件驱动：apply 层只发事件，CLI 决定如何展示
// - keepalive：copy 策略搬大文件时长时间没有条目完成，也会定期输出一行
type progressUI struct {
	w   io.Writer
	cfg domain.NamingConfig

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int
	ok    int
	fail  int
	skip  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer, cfg domain.NamingConfig) *progressUI {
	return &progressUI{
		w:                  w,
		cfg:                cfg,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(dir string, total int, mover string) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = now
	p.total = total

	fmt.Fprintf(p.w, "[%s] imgren apply\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", dir)
	fmt.Fprintf(p.w, "  mover: %s\n", mover)
	fmt.Fprintf(p.w, "  keywords: %q\n", truncate(p.cfg.BaseKeywords, 80))
	fmt.Fprintf(p.w, "  start: %d  padding: %d  date: %s\n", p.cfg.StartIndex, p.cfg.Padding, onOff(p.cfg.IncludeDate))
	if p.cfg.Prefix != "" || p.cfg.Suffix != "" {
		fmt.Fprintf(p.w, "  prefix: %q  suffix: %q\n", p.cfg.Prefix, p.cfg.Suffix)
	}
	fmt.Fprintf(p.w, "  entries: %d\n\n", total)

	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnEntryDone(idx, total int, res domain.EntryResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	var status string
	switch res.Status {
	case domain.EntryStatusRenamed:
		p.ok++
		status = "OK"
	case domain.EntryStatusSkipped:
		p.skip++
		status = "SKIP"
	case domain.EntryStatusFailed:
		p.fail++
		status = "FAIL"
	default:
		status = strings.ToUpper(res.Status)
	}

	if res.Status == domain.EntryStatusSkipped {
		fmt.Fprintf(p.w, "[%d/%d] %s %s (名称未变)\n", idx, total, status, res.Src)
	} else {
		fmt.Fprintf(p.w, "[%d/%d] %s %s -> %s (%s)\n", idx, total, status, res.Src, res.Dst, formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()

	// 最后一条或失败（之后不会再有事件）：停止 ticker。
	if p.done >= p.total || res.Status == domain.EntryStatusFailed {
		p.stopTickerLocked()
	}
}

// Stop 停止 keepalive（幂等）；批次提前结束时由调用方兜底调用。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stopCh := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d skip=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, p.skip, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if max <= 0 || len(r) <= max {
		return string(r)
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
