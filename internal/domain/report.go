package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	BatchStatusPlanned = "planned"
	BatchStatusSuccess = "success"
	BatchStatusFailed  = "failed"
)

const (
	EntryStatusPlanned   = "planned"
	EntryStatusRenamed   = "renamed"
	EntryStatusSkipped   = "skipped"
	EntryStatusFailed    = "failed"
	EntryStatusUntouched = "untouched"
)

const (
	ErrCodeSelectionFailed   = "selection_failed"
	ErrCodeRenameFailed      = "rename_failed"
	ErrCodeTargetExists      = "target_exists"
	ErrCodeKeywordsFailed    = "keywords_failed"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// BatchReport 是对外稳定输出（stdout JSON / --report 文件）的结构。
type BatchReport struct {
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run"`
	Mover  string `json:"mover"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Summary BatchSummary  `json:"summary"`
	Entries []EntryResult `json:"entries"`
}

type BatchSummary struct {
	Planned   int `json:"planned"`
	Renamed   int `json:"renamed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Untouched int `json:"untouched"`
}

type EntryResult struct {
	Index  int    `json:"index"`
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Status string `json:"status"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) entries 按计划下标稳定排序（计划顺序即执行顺序）
// 3) summary 由 entries 计算得出
func (r *BatchReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Entries == nil {
		r.Entries = []EntryResult{}
	}
	sort.SliceStable(r.Entries, func(i, j int) bool { return r.Entries[i].Index < r.Entries[j].Index })

	var s BatchSummary
	for _, e := range r.Entries {
		switch e.Status {
		case EntryStatusPlanned:
			s.Planned++
		case EntryStatusRenamed:
			s.Renamed++
		case EntryStatusSkipped:
			s.Skipped++
		case EntryStatusFailed:
			s.Failed++
		case EntryStatusUntouched:
			s.Untouched++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r BatchReport) MarshalJSON() ([]byte, error) {
	type Alias BatchReport
	return json.Marshal(Alias(r))
}
