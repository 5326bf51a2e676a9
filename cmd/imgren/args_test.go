package main

import "testing"

func TestParseArgs_AllFlags(t *testing.T) {
	ca, err := parseArgs([]string{
		"photos",
		"--keywords", "Chaussure Été",
		"--start=0",
		"--padding", "2",
		"--date=false",
		"--prefix=shop",
		"--suffix", "v2",
		"--mover", "COPY",
		"--report=out.json",
	}, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ca.Path != "photos" || ca.Keywords != "Chaussure Été" || !ca.KeywordsSet {
		t.Fatalf("path/keywords 不符合预期：%+v", ca)
	}
	if ca.StartIndex != 0 || !ca.StartIndexSet || ca.Padding != 2 || !ca.PaddingSet {
		t.Fatalf("start/padding 不符合预期：%+v", ca)
	}
	if ca.IncludeDate || !ca.IncludeDateSet {
		t.Fatalf("--date=false 应显式设置为 false：%+v", ca)
	}
	if ca.Prefix != "shop" || ca.Suffix != "v2" || ca.Mover != "copy" || ca.ReportPath != "out.json" {
		t.Fatalf("其余参数不符合预期：%+v", ca)
	}
}

func TestParseArgs_BareDateIsTrue(t *testing.T) {
	ca, err := parseArgs([]string{"--date"}, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ca.IncludeDate || !ca.IncludeDateSet {
		t.Fatalf("--date 应为 true：%+v", ca)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	cases := map[string][]string{
		"unknown":       {"--nope"},
		"missing value": {"--keywords"},
		"bad padding":   {"--padding=4"},
		"bad start":     {"--start", "-1"},
		"bad date":      {"--date=yes"},
		"bad mover":     {"--mover=hardlink"},
		"two paths":     {"a", "b"},
		"addr on plan":  {"--addr=:1"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseArgs(args, false); err == nil {
				t.Fatalf("期望错误：%v", args)
			}
		})
	}
}

func TestParseArgs_Serve(t *testing.T) {
	ca, err := parseArgs([]string{"--addr", "127.0.0.1:9000"}, true)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ca.PathOptional || ca.Addr != "127.0.0.1:9000" || !ca.AddrSet {
		t.Fatalf("serve 参数不符合预期：%+v", ca)
	}
	if _, err := parseArgs([]string{"--report=x.json"}, true); err == nil {
		t.Fatalf("serve 不接受 --report")
	}
}
