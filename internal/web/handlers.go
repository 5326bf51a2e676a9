package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/John-Robertt/imgren/internal/app/session"
	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/scan"
)

type indexData struct {
	Title    string
	Error    string
	Busy     bool
	Snap     session.Snapshot
	Paddings []int
}

type pickerData struct {
	Title   string
	Error   string
	Dir     string
	Parent  string
	Images  int
	Subdirs []subdir
}

type subdir struct {
	Name string
	Path string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	snap := s.sess.Snapshot()
	data := &indexData{
		Title:    s.opts.Title,
		Error:    r.URL.Query().Get("err"),
		Busy:     snap.State == session.StateProcessing,
		Snap:     snap,
		Paddings: []int{domain.MinPadding, 2, domain.MaxPadding},
	}
	if err := s.tmpl.ExecuteIndex(w, data); err != nil {
		log.Printf("render index: %v", err)
	}
}

// handlePick 渲染目录选择器：列出 dir 的直接子目录，可逐级进入。
func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	dir := strings.TrimSpace(r.URL.Query().Get("dir"))
	if dir == "" {
		dir = s.startDir()
	}

	data := &pickerData{Title: s.opts.Title}
	abs, err := scan.Select(dir)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		data.Error = err.Error()
		data.Dir = dir
		if err := s.tmpl.ExecutePicker(w, data); err != nil {
			log.Printf("render picker: %v", err)
		}
		return
	}

	data.Dir = abs
	if parent := filepath.Dir(abs); parent != abs {
		data.Parent = parent
	}
	data.Subdirs = listSubdirs(abs)
	if entries, err := scan.ListImages(abs); err == nil {
		data.Images = len(entries)
	}

	if err := s.tmpl.ExecutePicker(w, data); err != nil {
		log.Printf("render picker: %v", err)
	}
}

// handleSelect：path 为空表示用户取消，静默回到首页。
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectErr(w, r, err.Error())
		return
	}

	err := s.sess.Select(r.PostForm.Get("path"))
	switch {
	case err == nil, errors.Is(err, scan.ErrCanceled):
		redirectHome(w, r)
	case errors.Is(err, session.ErrBusy):
		redirectErr(w, r, err.Error())
	default:
		// SelectionError 已写入会话消息。
		redirectHome(w, r)
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectErr(w, r, err.Error())
		return
	}

	cfg, err := parseNamingForm(r.PostForm, s.sess.Config())
	if err != nil {
		redirectErr(w, r, err.Error())
		return
	}

	if src := strings.TrimSpace(r.PostForm.Get("keywords_from")); src != "" {
		if s.opts.Keywords == nil {
			redirectErr(w, r, "未启用商品页关键词提取")
			return
		}
		if src, err = homedir.Expand(src); err != nil {
			redirectErr(w, r, err.Error())
			return
		}
		kw, err := s.opts.Keywords(r.Context(), src)
		if err != nil {
			redirectErr(w, r, err.Error())
			return
		}
		cfg.BaseKeywords = kw
	}

	if err := s.sess.SetConfig(cfg); err != nil {
		redirectErr(w, r, err.Error())
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	rr, err := s.sess.Commit()
	if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrNoSelection) || errors.Is(err, session.ErrNoEntries) {
		redirectErr(w, r, err.Error())
		return
	}
	log.Printf("apply: dir=%s mover=%s status=%s renamed=%d skipped=%d failed=%d untouched=%d",
		rr.Path, rr.Mover, rr.Status, rr.Summary.Renamed, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Untouched)
	if err != nil {
		log.Printf("apply: %v", err)
	}
	redirectHome(w, r)
}

type planView struct {
	State   session.State       `json:"state"`
	Dir     string              `json:"dir"`
	Message string              `json:"message"`
	Config  namingView          `json:"config"`
	Entries []planEntryView     `json:"entries"`
	Report  *domain.BatchReport `json:"report,omitempty"`
}

type namingView struct {
	BaseKeywords string `json:"base_keywords"`
	StartIndex   int    `json:"start_index"`
	Padding      int    `json:"padding"`
	IncludeDate  bool   `json:"include_date"`
	Prefix       string `json:"prefix"`
	Suffix       string `json:"suffix"`
}

type planEntryView struct {
	Index         int    `json:"index"`
	SequenceIndex int    `json:"sequence_index"`
	OriginalName  string `json:"original_name"`
	GeneratedName string `json:"generated_name"`
	NoOp          bool   `json:"no_op"`
}

func (s *Server) handleAPIPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	snap := s.sess.Snapshot()
	v := planView{
		State:   snap.State,
		Dir:     snap.Dir,
		Message: snap.Message,
		Config: namingView{
			BaseKeywords: snap.Config.BaseKeywords,
			StartIndex:   snap.Config.StartIndex,
			Padding:      snap.Config.Padding,
			IncludeDate:  snap.Config.IncludeDate,
			Prefix:       snap.Config.Prefix,
			Suffix:       snap.Config.Suffix,
		},
		Entries: make([]planEntryView, 0, len(snap.Plan)),
		Report:  snap.Report,
	}
	for i, p := range snap.Plan {
		v.Entries = append(v.Entries, planEntryView{
			Index:         i,
			SequenceIndex: p.SequenceIndex,
			OriginalName:  p.Source.OriginalName,
			GeneratedName: p.GeneratedName,
			NoOp:          p.NoOp(),
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("encode plan: %v", err)
	}
}

// parseNamingForm 以当前模板为基础读取表单；未提交的字段保持原值，复选框未勾选即为 false。
func parseNamingForm(form url.Values, cur domain.NamingConfig) (domain.NamingConfig, error) {
	cfg := cur
	if _, ok := form["keywords"]; ok {
		cfg.BaseKeywords = form.Get("keywords")
	}
	if v := strings.TrimSpace(form.Get("start_index")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cur, errors.New("起始序号必须是整数")
		}
		cfg.StartIndex = n
	}
	if v := strings.TrimSpace(form.Get("padding")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cur, errors.New("位数必须是整数")
		}
		cfg.Padding = n
	}
	cfg.IncludeDate = form.Get("include_date") != ""
	if _, ok := form["prefix"]; ok {
		cfg.Prefix = form.Get("prefix")
	}
	if _, ok := form["suffix"]; ok {
		cfg.Suffix = form.Get("suffix")
	}
	return cfg, cfg.Validate()
}

func (s *Server) startDir() string {
	if d := s.sess.Snapshot().Dir; d != "" {
		return d
	}
	if s.opts.Home != "" {
		return s.opts.Home
	}
	if h, err := homedir.Dir(); err == nil {
		return h
	}
	return "."
}

// listSubdirs 列出直接子目录（跟随符号链接，跳过隐藏目录），按名称排序。
func listSubdirs(dir string) []subdir {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	out := make([]subdir, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		p := filepath.Join(dir, name)
		if e.Type()&os.ModeSymlink != 0 {
			fi, err := os.Stat(p)
			if err != nil || !fi.IsDir() {
				continue
			}
		} else if !e.IsDir() {
			continue
		}
		out = append(out, subdir{Name: name, Path: p})
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func redirectErr(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?err="+url.QueryEscape(msg), http.StatusSeeOther)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
