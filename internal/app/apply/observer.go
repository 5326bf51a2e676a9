package apply

import (
	"time"

	"github.com/John-Robertt/imgren/internal/domain"
)

// Observer 把提交进度从执行流程中解耦出来。
//
// 约束：
// - apply 包只发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件严格按计划顺序、在调用 Apply 的 goroutine 上发出。
type Observer interface {
	// OnStart 在第一次文件操作之前调用。
	OnStart(dir string, total int, mover string)
	// OnEntryDone 在每条计划处理完（renamed/skipped/failed）时调用；untouched 不发事件。
	OnEntryDone(idx, total int, res domain.EntryResult, dur time.Duration)
}
