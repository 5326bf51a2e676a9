package domain

// PlanEntry 是一条计划重命名（派生数据：每次 entries 或 config 变化都整体重算，从不落盘）。
type PlanEntry struct {
	Source        SourceEntry
	SequenceIndex int
	GeneratedName string
}

// NoOp 表示生成名与原名一致：提交时直接跳过，不计入 renamed。
func (p PlanEntry) NoOp() bool {
	return p.GeneratedName == p.Source.OriginalName
}
