// Package apply 把命名计划提交到文件系统：严格按计划顺序、一次一个、首错即停、不回滚。
package apply

import (
	"errors"
	"fmt"
	"time"

	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/infra/fsx"
)

// 可替换，便于测试锁失败。
var lockDir = fsx.LockDir

// RenameError 表示提交过程中的失败：Index 为计划下标（0 起），失败之后的条目全部未动。
//
// Index == -1 表示还没开始逐条处理（例如锁定目录失败）。
type RenameError struct {
	Index int
	From  string
	To    string
	Err   error
}

func (e *RenameError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("重命名未开始：%v", e.Err)
	}
	return fmt.Sprintf("重命名失败（第 %d 条）：%q -> %q：%v", e.Index+1, e.From, e.To, e.Err)
}

func (e *RenameError) Unwrap() error { return e.Err }

// ErrorCode 把提交错误映射到报告中的 error_code。
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fsx.ErrTargetExists):
		return domain.ErrCodeTargetExists
	default:
		return domain.ErrCodeRenameFailed
	}
}

// Apply 按计划顺序逐条改名。
//
// - 生成名与原名相同：skipped，不算失败，也不计入 renamed
// - 第一个错误立即终止：该条 failed，之后全部 untouched；已完成的改名保留
// - 成功时 report.Summary.Renamed 即实际改名数量
//
// 返回的 report 总是完整的（已 Finalize）；失败时 error 为 *RenameError。
func Apply(dir string, plan []domain.PlanEntry, mover fsx.Mover, obs Observer) (domain.BatchReport, error) {
	rr := domain.BatchReport{
		Path:      dir,
		DryRun:    false,
		Mover:     mover.Name(),
		StartedAt: time.Now().UTC(),
		Entries:   make([]domain.EntryResult, 0, len(plan)),
	}

	if obs != nil {
		obs.OnStart(dir, len(plan), mover.Name())
	}

	unlock, err := lockDir(dir)
	if err != nil {
		rerr := &RenameError{Index: -1, Err: err}
		for i, p := range plan {
			rr.Entries = append(rr.Entries, entry(i, p, domain.EntryStatusUntouched))
		}
		return finish(rr, rerr)
	}
	defer func() { _ = unlock() }()

	var rerr *RenameError
	for i, p := range plan {
		if rerr != nil {
			rr.Entries = append(rr.Entries, entry(i, p, domain.EntryStatusUntouched))
			continue
		}

		started := time.Now()
		var res domain.EntryResult
		if p.NoOp() {
			res = entry(i, p, domain.EntryStatusSkipped)
		} else if err := mover.Move(dir, p.Source.OriginalName, p.GeneratedName); err != nil {
			res = entry(i, p, domain.EntryStatusFailed)
			rerr = &RenameError{Index: i, From: p.Source.OriginalName, To: p.GeneratedName, Err: err}
		} else {
			res = entry(i, p, domain.EntryStatusRenamed)
		}
		rr.Entries = append(rr.Entries, res)

		if obs != nil {
			obs.OnEntryDone(i+1, len(plan), res, time.Since(started))
		}
	}

	return finish(rr, rerr)
}

// Preview 生成 dry-run 报告：不触碰文件系统。
func Preview(dir string, plan []domain.PlanEntry) domain.BatchReport {
	now := time.Now().UTC()
	rr := domain.BatchReport{
		Path:       dir,
		DryRun:     true,
		StartedAt:  now,
		FinishedAt: now,
		Status:     domain.BatchStatusPlanned,
		Entries:    make([]domain.EntryResult, 0, len(plan)),
	}
	for i, p := range plan {
		st := domain.EntryStatusPlanned
		if p.NoOp() {
			st = domain.EntryStatusSkipped
		}
		rr.Entries = append(rr.Entries, entry(i, p, st))
	}
	rr.Finalize()
	return rr
}

func finish(rr domain.BatchReport, rerr *RenameError) (domain.BatchReport, error) {
	rr.FinishedAt = time.Now().UTC()
	if rerr != nil {
		rr.Status = domain.BatchStatusFailed
		rr.ErrorCode = ErrorCode(rerr)
		rr.ErrorMsg = rerr.Error()
		rr.Finalize()
		return rr, rerr
	}
	rr.Status = domain.BatchStatusSuccess
	rr.Finalize()
	return rr, nil
}

func entry(i int, p domain.PlanEntry, status string) domain.EntryResult {
	return domain.EntryResult{
		Index:  i,
		Src:    p.Source.OriginalName,
		Dst:    p.GeneratedName,
		Status: status,
	}
}
