package naming

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var multiHyphenRE = regexp.MustCompile(`-{2,}`)

// Slugify 把任意文本转换为文件名/URL 安全的小写 slug（'-' 是唯一分隔符）。
//
// 步骤（顺序固定）：
// 1) NFD 分解，去掉 U+0300–U+036F 组合附加符号（"Été" -> "Ete"）
// 2) 小写 + 去首尾空白
// 3) 连续空白 -> 单个 '-'
// 4) 删除 [A-Za-z0-9_-] 之外的一切字符
// 5) 连续 '-' 折叠为一个
//
// 结果可能为空串，也可能以 '-' 开头/结尾；对已是 slug 的输入是幂等的。
func Slugify(s string) string {
	s = norm.NFD.String(s)
	s = strings.Map(func(r rune) rune {
		if r >= 0x0300 && r <= 0x036F {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), "-")
	s = strings.Map(func(r rune) rune {
		if isSlugRune(r) {
			return r
		}
		return -1
	}, s)
	return multiHyphenRE.ReplaceAllString(s, "-")
}

// isSlugRune 对应 [A-Za-z0-9_-]（只认 ASCII：非拉丁字母在 SEO 文件名里直接丢弃）。
func isSlugRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}
