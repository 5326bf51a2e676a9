package naming

import (
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/imgren/internal/domain"
)

const (
	// DefaultExtension 用于原文件名没有扩展名的情况。
	DefaultExtension = "jpg"
	// FallbackBase 用于关键词 slug 为空的情况。
	FallbackBase = "image"
)

// Extension 返回最后一个 '.' 之后的部分（小写）；没有则回退 jpg。
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return DefaultExtension
	}
	return strings.ToLower(name[i+1:])
}

// FormatSequence 左侧补 0 到 padding 位；位数超出时原样输出，不截断。
func FormatSequence(n, padding int) string {
	if padding < 1 {
		padding = 1
	}
	return fmt.Sprintf("%0*d", padding, n)
}

// DateSuffix 返回 "-YYYY-MM-DD"（按 UTC 日历日）；include=false 时为空串。
func DateSuffix(lastModifiedMillis int64, include bool) string {
	if !include {
		return ""
	}
	return "-" + time.UnixMilli(lastModifiedMillis).UTC().Format("2006-01-02")
}

// GenerateName 生成第 index 个条目（0 起）的目标文件名：
//
//	{prefix-}{base}-{num}{-date}{-suffix}.{ext}
//
// prefix/suffix 只有在 slug 非空时才出现（连同各自的 '-'）。
func GenerateName(e domain.SourceEntry, index int, cfg domain.NamingConfig) string {
	base := Slugify(cfg.BaseKeywords)
	if base == "" {
		base = FallbackBase
	}

	ext := e.Extension
	if ext == "" {
		ext = Extension(e.OriginalName)
	}

	var b strings.Builder
	if p := slugIfSet(cfg.Prefix); p != "" {
		b.WriteString(p)
		b.WriteByte('-')
	}
	b.WriteString(base)
	b.WriteByte('-')
	b.WriteString(FormatSequence(cfg.StartIndex+index, cfg.Padding))
	b.WriteString(DateSuffix(e.LastModified, cfg.IncludeDate))
	if s := slugIfSet(cfg.Suffix); s != "" {
		b.WriteByte('-')
		b.WriteString(s)
	}
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}

func slugIfSet(s string) string {
	if s == "" {
		return ""
	}
	return Slugify(s)
}
