// Package session 持有一次交互式改名会话的全部状态：选中的目录、已加载条目与当前模板。
//
// 状态机：Idle -> Processing -> (Succeeded | Failed)。
// Processing 期间不可取消，任何修改性操作都返回 ErrBusy。
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/John-Robertt/imgren/internal/app/apply"
	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/infra/fsx"
	"github.com/John-Robertt/imgren/internal/naming"
	"github.com/John-Robertt/imgren/internal/scan"
)

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	ErrBusy        = errors.New("正在处理中，请稍候")
	ErrNoSelection = errors.New("尚未选择目录")
	ErrNoEntries   = errors.New("目录中没有可处理的图片")
)

// Deps 是会话依赖的全部协作者；由入口（cmd/imgren）构造并注入。
type Deps struct {
	Select  func(path string) (string, error)
	List    func(dir string) ([]domain.SourceEntry, error)
	Planner *naming.Planner
	Mover   fsx.Mover

	// 可选。
	Observer apply.Observer
	Watch    func(dir string, onChange func()) (stop func(), err error)
}

// Snapshot 是某一时刻会话状态的只读副本（供页面渲染与 JSON 输出）。
type Snapshot struct {
	State   State               `json:"state"`
	Dir     string              `json:"dir"`
	Config  domain.NamingConfig `json:"config"`
	Plan    []domain.PlanEntry  `json:"plan"`
	Message string              `json:"message"`
	Report  *domain.BatchReport `json:"report,omitempty"`
}

type Session struct {
	deps Deps

	mu        sync.Mutex
	state     State
	dir       string
	entries   []domain.SourceEntry
	cfg       domain.NamingConfig
	message   string
	report    *domain.BatchReport
	stopWatch func()
}

// New 构造会话。deps.Select/List/Planner/Mover 必须非空；cfg 非法时回退为默认模板。
func New(deps Deps, cfg domain.NamingConfig) *Session {
	if cfg.Validate() != nil {
		cfg = domain.DefaultNamingConfig()
	}
	return &Session{deps: deps, state: StateIdle, cfg: cfg}
}

// Select 选择并加载目录。
//
// 空路径视为用户取消：返回 scan.ErrCanceled，会话保持原样。
// 失败返回 *scan.SelectionError，并记录为用户可见消息；已有选择保持不变。
func (s *Session) Select(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateProcessing {
		return ErrBusy
	}

	dir, err := s.deps.Select(path)
	if err != nil {
		if errors.Is(err, scan.ErrCanceled) {
			return err
		}
		s.message = err.Error()
		return err
	}
	entries, err := s.deps.List(dir)
	if err != nil {
		if !scan.IsSelectionError(err) {
			err = &scan.SelectionError{Path: dir, Err: err}
		}
		s.message = err.Error()
		return err
	}

	s.stopWatchLocked()
	s.dir = dir
	s.entries = entries
	s.state = StateIdle
	s.report = nil
	s.message = fmt.Sprintf("已加载 %d 张图片", len(entries))
	s.startWatchLocked()
	return nil
}

// SetConfig 替换当前模板；计划会在下一次 Plan/Snapshot 时整体重算。
func (s *Session) SetConfig(cfg domain.NamingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateProcessing {
		return ErrBusy
	}
	s.cfg = cfg
	return nil
}

// Config 返回当前模板。
func (s *Session) Config() domain.NamingConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Plan 返回当前条目在当前模板下的计划（副本）。
func (s *Session) Plan() []domain.PlanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps.Planner.Plan(s.entries, s.cfg)
}

// Refresh 重新列目录（外部改动后调用）。Processing 期间或未选择目录时什么也不做。
func (s *Session) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateProcessing || s.dir == "" {
		return nil
	}
	return s.relistLocked()
}

// Commit 提交当前计划。
//
// 成功：状态 Succeeded，清空选择与条目。
// 失败：状态 Failed，保留选择并重新列目录，计划按真实磁盘状态重算，允许重试。
func (s *Session) Commit() (domain.BatchReport, error) {
	s.mu.Lock()
	if s.state == StateProcessing {
		s.mu.Unlock()
		return domain.BatchReport{}, ErrBusy
	}
	if s.dir == "" {
		s.mu.Unlock()
		return domain.BatchReport{}, ErrNoSelection
	}
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return domain.BatchReport{}, ErrNoEntries
	}
	dir := s.dir
	plan := s.deps.Planner.Plan(s.entries, s.cfg)
	s.state = StateProcessing
	s.message = "处理中…"
	s.mu.Unlock()

	rr, err := apply.Apply(dir, plan, s.deps.Mover, s.deps.Observer)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.report = &rr
	if err != nil {
		s.state = StateFailed
		s.message = fmt.Sprintf("错误：%v", err)
		if lerr := s.relistLocked(); lerr != nil {
			s.message = fmt.Sprintf("错误：%v（重新读取目录也失败：%v）", err, lerr)
		}
		return rr, err
	}

	s.state = StateSucceeded
	s.message = fmt.Sprintf("成功重命名 %d 个文件", rr.Summary.Renamed)
	s.stopWatchLocked()
	s.dir = ""
	s.entries = nil
	return rr, nil
}

// Snapshot 返回当前状态的副本（包含按当前模板重算的计划）。
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:   s.state,
		Dir:     s.dir,
		Config:  s.cfg,
		Plan:    s.deps.Planner.Plan(s.entries, s.cfg),
		Message: s.message,
	}
	if s.report != nil {
		rr := *s.report
		snap.Report = &rr
	}
	return snap
}

// Close 释放后台资源（目录监听）。
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatchLocked()
}

func (s *Session) relistLocked() error {
	entries, err := s.deps.List(s.dir)
	if err != nil {
		return err
	}
	s.entries = entries
	return nil
}

func (s *Session) startWatchLocked() {
	if s.deps.Watch == nil {
		return
	}
	stop, err := s.deps.Watch(s.dir, func() { _ = s.Refresh() })
	if err != nil {
		// 监听失败不影响主流程：用户仍可手动重新选择目录刷新。
		return
	}
	s.stopWatch = stop
}

func (s *Session) stopWatchLocked() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}
