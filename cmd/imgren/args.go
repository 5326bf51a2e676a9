package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/John-Robertt/imgren/internal/config"
)

type cliArgs struct {
	config.CLIArgs

	// ReportPath 仅 plan/apply：把 BatchReport 额外写入该文件。
	ReportPath string
}

// parseArgs 解析 [path] 与各 flag；同时支持 "--flag value" 与 "--flag=value"。
// serve 额外接受 --addr，且 path 可缺省；plan/apply 额外接受 --report。
func parseArgs(args []string, serve bool) (cliArgs, error) {
	ca := cliArgs{}
	ca.PathOptional = serve

	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			if ca.Path != "" {
				return cliArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ca.Path, a)
			}
			ca.Path = a
			continue
		}

		name, val, hasVal := strings.Cut(a, "=")

		// --date 是唯一的布尔 flag：单独出现即 true。
		if name == "--date" {
			ca.IncludeDate = true
			if hasVal {
				b, err := parseBool(val)
				if err != nil {
					return cliArgs{}, fmt.Errorf("--date 只能是 true 或 false，实际是 %q", val)
				}
				ca.IncludeDate = b
			}
			ca.IncludeDateSet = true
			continue
		}

		if !knownValueFlag(name, serve) {
			return cliArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		if !hasVal {
			if i+1 >= len(args) {
				return cliArgs{}, fmt.Errorf("%s 需要一个值", name)
			}
			i++
			val = args[i]
		}

		switch name {
		case "--keywords":
			ca.Keywords, ca.KeywordsSet = val, true
		case "--keywords-from":
			if strings.TrimSpace(val) == "" {
				return cliArgs{}, fmt.Errorf("--keywords-from 不能为空")
			}
			ca.KeywordsFrom, ca.KeywordsFromSet = val, true
		case "--start":
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 0 {
				return cliArgs{}, fmt.Errorf("--start 必须是非负整数，实际是 %q", val)
			}
			ca.StartIndex, ca.StartIndexSet = n, true
		case "--padding":
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 1 || n > 3 {
				return cliArgs{}, fmt.Errorf("--padding 只能是 1、2 或 3，实际是 %q", val)
			}
			ca.Padding, ca.PaddingSet = n, true
		case "--prefix":
			ca.Prefix, ca.PrefixSet = val, true
		case "--suffix":
			ca.Suffix, ca.SuffixSet = val, true
		case "--mover":
			switch v := strings.ToLower(strings.TrimSpace(val)); v {
			case "auto", "rename", "copy":
				ca.Mover, ca.MoverSet = v, true
			default:
				return cliArgs{}, fmt.Errorf("--mover 只能是 auto、rename 或 copy，实际是 %q", val)
			}
		case "--report":
			if strings.TrimSpace(val) == "" {
				return cliArgs{}, fmt.Errorf("--report 不能为空")
			}
			ca.ReportPath = val
		case "--addr":
			if strings.TrimSpace(val) == "" {
				return cliArgs{}, fmt.Errorf("--addr 不能为空")
			}
			ca.Addr, ca.AddrSet = val, true
		}
	}

	return ca, nil
}

func knownValueFlag(name string, serve bool) bool {
	switch name {
	case "--keywords", "--keywords-from", "--start", "--padding", "--prefix", "--suffix", "--mover":
		return true
	case "--report":
		return !serve
	case "--addr":
		return serve
	default:
		return false
	}
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", s)
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  imgren plan  [path] [模板参数] [--report <file>]
  imgren apply [path] [模板参数] [--mover auto|rename|copy] [--report <file>]
  imgren serve [path] [模板参数] [--addr host:port]

命令：
  plan   只计算并展示改名计划（dry-run）
  apply  按计划顺序改名（首个错误即停止，不回滚）
  serve  启动本地浏览器界面

使用 "imgren <命令> --help" 查看详细说明。
`)
}

const templateFlagsUsage = `模板参数：
  --keywords <text>        基础关键词（默认 image-produit）
  --keywords-from <src>    从商品页提取关键词：http(s) URL 或本地 HTML 文件
  --start <n>              起始序号（>= 0，默认 1）
  --padding <1|2|3>        序号位数（默认 3）
  --date[=true|false]      追加文件修改日期 -YYYY-MM-DD（UTC）
  --prefix <text>          前缀
  --suffix <text>          后缀
  --mover <strategy>       auto（默认）| rename | copy
`

func printBatchUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  imgren plan|apply [path] [参数]

未给出 path 时读取 ./imgren.json 中的 path；给出 path 时读取 <path>/imgren.json（可选）。
优先级：命令行 > 配置文件 > 内置默认。

`+templateFlagsUsage+`  --report <file>          额外把 JSON 报告写入该文件
  -h, --help               显示帮助

stdout 是终端时输出表格；否则 stdout 只输出一个 JSON 报告。
`)
}

func printServeUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  imgren serve [path] [参数]

`+templateFlagsUsage+`  --addr <host:port>       监听地址（默认 `+config.DefaultAddr+`）
  -h, --help               显示帮助
`)
}
