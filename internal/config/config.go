package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/John-Robertt/imgren/internal/domain"
)

// FileName 是配置文件名：位于目标目录（或无参运行时的 cwd）下。
const FileName = "imgren.json"

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 imgren.json。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = domain.ErrCodeConfigMissingPath
)

const (
	DefaultMover = "auto"
	DefaultAddr  = "127.0.0.1:8765"
)

// CLIArgs 保留每个 flag “是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --date=false 必须能覆盖 include_date=true。
type CLIArgs struct {
	Path string

	// PathOptional 为 true 时（serve），既没有 path 也没有配置文件不算错误：目录稍后在页面上选择。
	PathOptional bool

	Keywords    string
	KeywordsSet bool

	KeywordsFrom    string
	KeywordsFromSet bool

	StartIndex    int
	StartIndexSet bool

	Padding    int
	PaddingSet bool

	IncludeDate    bool
	IncludeDateSet bool

	Prefix    string
	PrefixSet bool

	Suffix    string
	SuffixSet bool

	Mover    string
	MoverSet bool

	Addr    string
	AddrSet bool
}

// FileConfig 对应 imgren.json 的解析结构。指针字段用于区分“未写”与“写了零值”。
type FileConfig struct {
	Path         string       `json:"path"`
	Keywords     *string      `json:"keywords"`
	KeywordsFrom string       `json:"keywords_from"`
	StartIndex   *int         `json:"start_index"`
	Padding      int          `json:"padding"`
	IncludeDate  *bool        `json:"include_date"`
	Prefix       string       `json:"prefix"`
	Suffix       string       `json:"suffix"`
	Mover        string       `json:"mover"`
	Addr         string       `json:"addr"`
	Proxy        *ProxyConfig `json:"proxy"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Path 为空仅可能出现在 PathOptional 时。
	Path string

	Naming domain.NamingConfig

	// KeywordsFrom 非空时，由商品页推导 Naming.BaseKeywords（http(s) URL 或本地 HTML 文件的绝对路径）。
	KeywordsFrom string

	Mover    string
	ProxyURL string
	Addr     string

	// ConfigFile 为实际读取到的配置文件；未读取到时为空。
	ConfigFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/imgren.json（可选）
// 2) CLI 未提供 path：读取 <cwd>/imgren.json，且其中必须包含 path（PathOptional 时两者都可缺）
//
// 覆盖优先级（固定）：CLI > 配置文件 > 内置默认。
// path 与 keywords_from 支持 ~ 展开；相对路径以 cwd（CLI）或配置文件所在目录（配置文件）为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		absPath, err := absCleanFrom(cwdAbs, cli.Path)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cli.Path, Err: err}
		}
		cfgPath := filepath.Join(absPath, FileName)

		fc, exists, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			cfgPath = ""
		}
		return merge(cwdAbs, absPath, cli, fc, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if cli.PathOptional {
			return merge(cwdAbs, "", cli, FileConfig{}, "")
		}
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		if cli.PathOptional {
			return merge(cwdAbs, "", cli, fc, cfgPath)
		}
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath, err := absCleanFrom(cwdAbs, fc.Path)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(cwdAbs, absPath, cli, fc, cfgPath)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	errPath := cfgPath
	if errPath == "" {
		errPath = "CLI"
	}
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: errPath, Err: err}
	}

	n := domain.DefaultNamingConfig()

	switch {
	case cli.KeywordsSet:
		n.BaseKeywords = cli.Keywords
	case fc.Keywords != nil:
		n.BaseKeywords = *fc.Keywords
	}

	switch {
	case cli.StartIndexSet:
		n.StartIndex = cli.StartIndex
	case fc.StartIndex != nil:
		n.StartIndex = *fc.StartIndex
	}

	switch {
	case cli.PaddingSet:
		n.Padding = cli.Padding
	case fc.Padding != 0:
		n.Padding = fc.Padding
	}

	switch {
	case cli.IncludeDateSet:
		n.IncludeDate = cli.IncludeDate
	case fc.IncludeDate != nil:
		n.IncludeDate = *fc.IncludeDate
	}

	n.Prefix = fc.Prefix
	if cli.PrefixSet {
		n.Prefix = cli.Prefix
	}
	n.Suffix = fc.Suffix
	if cli.SuffixSet {
		n.Suffix = cli.Suffix
	}

	if err := n.Validate(); err != nil {
		return invalid(err)
	}

	// keywords_from：CLI 相对 cwd，配置文件相对其所在目录。
	keywordsFrom := ""
	switch {
	case cli.KeywordsFromSet:
		kf, err := resolveSource(cwdAbs, cli.KeywordsFrom)
		if err != nil {
			return invalid(err)
		}
		keywordsFrom = kf
	case strings.TrimSpace(fc.KeywordsFrom) != "":
		kf, err := resolveSource(filepath.Dir(cfgPath), fc.KeywordsFrom)
		if err != nil {
			return invalid(err)
		}
		keywordsFrom = kf
	}

	mover := DefaultMover
	if cli.MoverSet {
		mover = cli.Mover
	} else if strings.TrimSpace(fc.Mover) != "" {
		mover = fc.Mover
	}
	mover = strings.ToLower(strings.TrimSpace(mover))
	if err := validateMover(mover); err != nil {
		return invalid(err)
	}

	addr := DefaultAddr
	if cli.AddrSet {
		addr = cli.Addr
	} else if strings.TrimSpace(fc.Addr) != "" {
		addr = fc.Addr
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return invalid(fmt.Errorf("addr 不能为空"))
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	return EffectiveConfig{
		Path:         absPath,
		Naming:       n,
		KeywordsFrom: keywordsFrom,
		Mover:        mover,
		ProxyURL:     proxyURL,
		Addr:         addr,
		ConfigFile:   cfgPath,
	}, nil
}

func validateMover(m string) error {
	switch m {
	case "auto", "rename", "copy":
		return nil
	default:
		return fmt.Errorf("mover 只能是 auto、rename 或 copy，实际是 %q", m)
	}
}

// resolveSource 规范化 keywords_from：http(s) URL 原样保留，其余视为本地文件路径。
func resolveSource(base, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("keywords_from 不能为空")
	}
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "" {
			return "", fmt.Errorf("keywords_from 无效：%q", s)
		}
		return s, nil
	}
	return absCleanFrom(base, s)
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute（先做 ~ 展开）。
func absCleanFrom(base, p string) (string, error) {
	p, err := homedir.Expand(strings.TrimSpace(p))
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", nil
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Clean(filepath.Join(base, p)), nil
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
