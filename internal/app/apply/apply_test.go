package apply

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/infra/fsx"
)

type stubMover struct {
	failAt map[string]error
	calls  []string
}

func (m *stubMover) Name() string { return "stub" }

func (m *stubMover) Move(dir, from, to string) error {
	m.calls = append(m.calls, from)
	if err := m.failAt[from]; err != nil {
		return err
	}
	return nil
}

type recordObserver struct {
	starts int
	done   []string
}

func (o *recordObserver) OnStart(dir string, total int, mover string) { o.starts++ }

func (o *recordObserver) OnEntryDone(idx, total int, res domain.EntryResult, dur time.Duration) {
	o.done = append(o.done, res.Status)
}

func planOf(pairs ...string) []domain.PlanEntry {
	out := make([]domain.PlanEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.PlanEntry{
			Source:        domain.SourceEntry{OriginalName: pairs[i]},
			SequenceIndex: i/2 + 1,
			GeneratedName: pairs[i+1],
		})
	}
	return out
}

func statuses(rr domain.BatchReport) []string {
	out := make([]string, 0, len(rr.Entries))
	for _, e := range rr.Entries {
		out = append(out, e.Status)
	}
	return out
}

func TestApply_SecondFailure_AbortsRemaining(t *testing.T) {
	dir := t.TempDir()
	m := &stubMover{failAt: map[string]error{"b.jpg": os.ErrPermission}}
	obs := &recordObserver{}

	rr, err := Apply(dir, planOf("a.jpg", "x-001.jpg", "b.jpg", "x-002.jpg", "c.jpg", "x-003.jpg"), m, obs)

	var rerr *RenameError
	if !errors.As(err, &rerr) {
		t.Fatalf("期望 *RenameError，实际 %T %v", err, err)
	}
	if rerr.Index != 1 || rerr.From != "b.jpg" || rerr.To != "x-002.jpg" {
		t.Fatalf("RenameError 字段不符合预期：%+v", rerr)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("RenameError 应保留底层错误")
	}

	if !reflect.DeepEqual(m.calls, []string{"a.jpg", "b.jpg"}) {
		t.Fatalf("失败后不应继续调用 mover：%v", m.calls)
	}
	want := []string{domain.EntryStatusRenamed, domain.EntryStatusFailed, domain.EntryStatusUntouched}
	if got := statuses(rr); !reflect.DeepEqual(got, want) {
		t.Fatalf("条目状态不符合预期：got=%v want=%v", got, want)
	}
	if rr.Status != domain.BatchStatusFailed || rr.ErrorCode != domain.ErrCodeRenameFailed || rr.ErrorMsg == "" {
		t.Fatalf("批次应只有一个失败状态：%+v", rr)
	}
	if rr.Summary.Renamed != 1 || rr.Summary.Failed != 1 || rr.Summary.Untouched != 1 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}
	if obs.starts != 1 || len(obs.done) != 2 {
		t.Fatalf("observer 事件不符合预期：starts=%d done=%v", obs.starts, obs.done)
	}
}

func TestApply_NoOpIsSkippedAndNotCounted(t *testing.T) {
	m := &stubMover{}
	rr, err := Apply(t.TempDir(), planOf("x-001.jpg", "x-001.jpg", "b.jpg", "x-002.jpg"), m, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(m.calls, []string{"b.jpg"}) {
		t.Fatalf("no-op 不应调用 mover：%v", m.calls)
	}
	if rr.Status != domain.BatchStatusSuccess {
		t.Fatalf("期望 success，实际 %s", rr.Status)
	}
	if rr.Summary.Renamed != 1 || rr.Summary.Skipped != 1 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}
}

func TestApply_TargetExistsMapsErrorCode(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.jpg", "x-001.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644); err != nil {
			t.Fatalf("写入文件失败：%v", err)
		}
	}

	rr, err := Apply(dir, planOf("a.jpg", "x-001.jpg"), fsx.RenameMover{}, nil)
	if !errors.Is(err, fsx.ErrTargetExists) {
		t.Fatalf("期望 ErrTargetExists，实际 %v", err)
	}
	if rr.ErrorCode != domain.ErrCodeTargetExists {
		t.Fatalf("error_code 不符合预期：%q", rr.ErrorCode)
	}
	if b, _ := os.ReadFile(filepath.Join(dir, "x-001.jpg")); string(b) != "x-001.jpg" {
		t.Fatalf("已存在的目标不应被覆盖")
	}
}

func TestApply_RealFilesystem(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"IMG_2.JPG", "IMG_10.png"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644); err != nil {
			t.Fatalf("写入文件失败：%v", err)
		}
	}

	rr, err := Apply(dir, planOf("IMG_2.JPG", "shoe-001.jpg", "IMG_10.png", "shoe-002.png"), fsx.AutoMover{}, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if rr.Mover != fsx.StrategyAuto || rr.DryRun {
		t.Fatalf("报告字段不符合预期：%+v", rr)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if !reflect.DeepEqual(names, []string{fsx.LockFileName, "shoe-001.jpg", "shoe-002.png"}) {
		t.Fatalf("目录内容不符合预期：%v", names)
	}
}

func TestApply_LockFailure(t *testing.T) {
	old := lockDir
	lockDir = func(string) (func() error, error) { return nil, errors.New("busy") }
	defer func() { lockDir = old }()

	m := &stubMover{}
	rr, err := Apply(t.TempDir(), planOf("a.jpg", "x-001.jpg"), m, nil)

	var rerr *RenameError
	if !errors.As(err, &rerr) || rerr.Index != -1 {
		t.Fatalf("期望 Index=-1 的 RenameError，实际 %v", err)
	}
	if len(m.calls) != 0 {
		t.Fatalf("锁定失败时不应调用 mover")
	}
	if rr.Summary.Untouched != 1 {
		t.Fatalf("所有条目应为 untouched：%+v", rr.Summary)
	}
}

func TestPreview(t *testing.T) {
	rr := Preview("/tmp/x", planOf("x-001.jpg", "x-001.jpg", "b.jpg", "x-002.jpg"))
	if !rr.DryRun || rr.Status != domain.BatchStatusPlanned {
		t.Fatalf("preview 报告字段不符合预期：%+v", rr)
	}
	if rr.Summary.Planned != 1 || rr.Summary.Skipped != 1 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}
}
