package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/John-Robertt/imgren/internal/app/apply"
	"github.com/John-Robertt/imgren/internal/app/session"
	"github.com/John-Robertt/imgren/internal/config"
	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/infra/fsx"
	"github.com/John-Robertt/imgren/internal/infra/httpx"
	"github.com/John-Robertt/imgren/internal/infra/watch"
	"github.com/John-Robertt/imgren/internal/keywords"
	"github.com/John-Robertt/imgren/internal/naming"
	"github.com/John-Robertt/imgren/internal/scan"
	"github.com/John-Robertt/imgren/internal/web"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	var code int
	switch args[0] {
	case "plan":
		code = batchCmd(args[1:], false, os.Stdout, os.Stderr)
	case "apply":
		code = batchCmd(args[1:], true, os.Stdout, os.Stderr)
	case "serve":
		code = serveCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

// batchCmd 实现 plan（dry-run）与 apply：每次都重新列目录，不保存任何状态。
func batchCmd(args []string, commit bool, stdout, stderr io.Writer) int {
	for _, a := range args {
		if isHelp(a) {
			printBatchUsage(stdout)
			return 0
		}
	}

	ca, err := parseArgs(args, false)
	if err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		printBatchUsage(stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, ca.CLIArgs)
	if err != nil {
		path, _ := filepath.Abs(cwd)
		emitReport(stdout, stderr, failedReport(path, !commit, config.Code(err), err))
		return 1
	}

	// 错误已写进报告（status=failed），退出码由报告决定。
	rr, _ := runBatch(context.Background(), eff, commit, stderr)

	if ca.ReportPath != "" {
		if werr := writeReportFile(ca.ReportPath, rr); werr != nil {
			fmt.Fprintf(stderr, "写入报告失败：%v\n", werr)
			emitReport(stdout, stderr, rr)
			return 1
		}
	}

	emitReport(stdout, stderr, rr)
	if rr.Status == domain.BatchStatusFailed {
		return 1
	}
	return 0
}

// runBatch 组装协作者（关键词 -> 选择目录 -> 列目录 -> 计划 -> 预览/提交）并执行一次。
// 返回的报告总是可输出的；失败时 Status=failed。
func runBatch(ctx context.Context, eff config.EffectiveConfig, commit bool, progress io.Writer) (domain.BatchReport, error) {
	cfg := eff.Naming

	if eff.KeywordsFrom != "" {
		client, err := httpx.NewPageClient(eff.ProxyURL)
		if err != nil {
			err = fmt.Errorf("proxy.url 无效：%w", err)
			return failedReport(eff.Path, !commit, domain.ErrCodeConfigInvalid, err), err
		}
		kw, err := keywords.Resolve(ctx, eff.KeywordsFrom, client)
		if err != nil {
			return failedReport(eff.Path, !commit, domain.ErrCodeKeywordsFailed, err), err
		}
		cfg.BaseKeywords = kw
	}

	dir, err := scan.Select(eff.Path)
	if err != nil {
		return failedReport(eff.Path, !commit, domain.ErrCodeSelectionFailed, err), err
	}
	entries, err := scan.ListImages(dir)
	if err != nil {
		return failedReport(dir, !commit, domain.ErrCodeSelectionFailed, err), err
	}

	plan := naming.ComputePlan(entries, cfg)

	if !commit {
		rr := apply.Preview(dir, plan)
		rr.Mover = eff.Mover
		return rr, nil
	}

	mover, err := fsx.NewMover(eff.Mover)
	if err != nil {
		return failedReport(dir, false, domain.ErrCodeConfigInvalid, err), err
	}

	var obs apply.Observer
	if w, interactive := pickProgressWriter(progress); interactive {
		ui := newProgressUI(w, cfg)
		defer ui.Stop()
		obs = ui
	}
	return apply.Apply(dir, plan, mover, obs)
}

// serveCmd 启动本地浏览器界面，直到 Ctrl-C。
func serveCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printServeUsage(os.Stdout)
			return 0
		}
	}

	ca, err := parseArgs(args, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printServeUsage(os.Stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Printf("读取当前目录失败：%v", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, ca.CLIArgs)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}

	client, err := httpx.NewPageClient(eff.ProxyURL)
	if err != nil {
		log.Printf("proxy.url 无效：%v", err)
		return 1
	}
	resolve := func(ctx context.Context, src string) (string, error) {
		return keywords.Resolve(ctx, src, client)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := eff.Naming
	if eff.KeywordsFrom != "" {
		kw, err := resolve(ctx, eff.KeywordsFrom)
		if err != nil {
			log.Printf("%v", err)
			return 1
		}
		cfg.BaseKeywords = kw
	}

	mover, err := fsx.NewMover(eff.Mover)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}

	sess := session.New(session.Deps{
		Select:  scan.Select,
		List:    scan.ListImages,
		Planner: naming.NewPlanner(),
		Mover:   mover,
		Watch: func(dir string, onChange func()) (func(), error) {
			return watch.Dir(dir, watch.DefaultDebounce, onChange)
		},
	}, cfg)
	defer sess.Close()

	if eff.Path != "" {
		if err := sess.Select(eff.Path); err != nil && !errors.Is(err, scan.ErrCanceled) {
			log.Printf("%v", err)
		}
	}

	srv, err := web.NewServer(sess, web.Options{Keywords: resolve, Addr: eff.Addr})
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	if err := srv.ListenAndServe(ctx, eff.Addr); err != nil {
		log.Printf("server error: %v", err)
		return 1
	}
	return 0
}

func failedReport(path string, dryRun bool, code string, err error) domain.BatchReport {
	now := time.Now().UTC()
	rr := domain.BatchReport{
		Path:       path,
		DryRun:     dryRun,
		StartedAt:  now,
		FinishedAt: now,
		Status:     domain.BatchStatusFailed,
		ErrorCode:  code,
		ErrorMsg:   err.Error(),
	}
	rr.Finalize()
	return rr
}

func emitReport(stdout, stderr io.Writer, rr domain.BatchReport) {
	if isTTY(stdout) {
		printTable(stdout, rr)
		if rr.ErrorCode != "" {
			fmt.Fprintf(stderr, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
		}
		fmt.Fprintln(stdout, summaryLine(rr))
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 BatchReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(stdout)
	_ = enc.Encode(rr)
	if rr.ErrorCode != "" {
		fmt.Fprintf(stderr, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
	}
	fmt.Fprintln(stderr, summaryLine(rr))
}

func summaryLine(rr domain.BatchReport) string {
	s := rr.Summary
	if rr.DryRun {
		return fmt.Sprintf("计划：planned=%d skipped=%d（dry-run，未改动任何文件）", s.Planned, s.Skipped)
	}
	return fmt.Sprintf("完成：renamed=%d skipped=%d failed=%d untouched=%d", s.Renamed, s.Skipped, s.Failed, s.Untouched)
}

// printTable 输出人类可读的 “原名 -> 新名” 表格。
func printTable(w io.Writer, rr domain.BatchReport) {
	if len(rr.Entries) == 0 {
		return
	}
	width := 0
	for _, e := range rr.Entries {
		if n := len([]rune(e.Src)); n > width {
			width = n
		}
	}
	if width > 60 {
		width = 60
	}
	for _, e := range rr.Entries {
		fmt.Fprintf(w, "%4d  %-*s -> %s  [%s]\n", e.Index+1, width, truncate(e.Src, 60), e.Dst, e.Status)
	}
}

// writeReportFile 原子写入 --report 指定的文件（覆盖已存在的旧报告）。
func writeReportFile(path string, rr domain.BatchReport) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Dir(abs), filepath.Base(abs), b)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter(stderr io.Writer) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(stderr) {
		return stderr, true
	}
	return nil, false
}
