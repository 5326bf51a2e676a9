package domain

import "fmt"

// SourceEntry 描述一次列目录得到的图片文件（只做 stat，不读内容）。
//
// 不变量：
// - 加载后不可变；顺序由加载时的自然排序决定，之后不再重排
// - Extension 总是小写、不带 '.'（由 OriginalName 推导）
type SourceEntry struct {
	OriginalName string
	Extension    string
	LastModified int64 // epoch millis
	Size         int64
}

// NamingConfig 是命名模板（用户在提交前可随时修改）。
//
// 必须保持可比较（==），Planner 以它作为缓存 key 的一部分。
type NamingConfig struct {
	BaseKeywords string
	StartIndex   int
	Padding      int // 1..3
	IncludeDate  bool
	Prefix       string
	Suffix       string
}

const (
	DefaultBaseKeywords = "image-produit"
	DefaultStartIndex   = 1
	DefaultPadding      = 3

	MinPadding = 1
	MaxPadding = 3
)

// DefaultNamingConfig 返回内置默认模板。
func DefaultNamingConfig() NamingConfig {
	return NamingConfig{
		BaseKeywords: DefaultBaseKeywords,
		StartIndex:   DefaultStartIndex,
		Padding:      DefaultPadding,
	}
}

// Validate 只校验数值范围；文本字段允许任意内容（由 slugify 兜底）。
func (c NamingConfig) Validate() error {
	if c.StartIndex < 0 {
		return fmt.Errorf("start_index 不能为负数，实际是 %d", c.StartIndex)
	}
	if c.Padding < MinPadding || c.Padding > MaxPadding {
		return fmt.Errorf("padding 只能是 %d..%d，实际是 %d", MinPadding, MaxPadding, c.Padding)
	}
	return nil
}
