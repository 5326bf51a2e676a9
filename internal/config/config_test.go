package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/imgren/internal/domain"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_PathOptional(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{PathOptional: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != "" || eff.Addr != DefaultAddr {
		t.Fatalf("期望空 path + 默认 addr，实际 %+v", eff)
	}
	if eff.Naming != domain.DefaultNamingConfig() {
		t.Fatalf("期望默认模板，实际 %+v", eff.Naming)
	}
}

func TestLoadEffective_ConfigMissingPath(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"keywords":"x"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingPath {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingPath, err, Code(err))
	}
}

func TestLoadEffective_DateCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"path":"photos","include_date":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		IncludeDate:    false,
		IncludeDateSet: true, // --date=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Naming.IncludeDate {
		t.Fatalf("期望 include_date=false")
	}

	wantPath := filepath.Join(cwd, "photos")
	if eff.Path != wantPath {
		t.Fatalf("期望 path=%q，实际=%q", wantPath, eff.Path)
	}
}

func TestLoadEffective_NamingMergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"path":"p","keywords":"Chaussure Été","start_index":0,"padding":2,"prefix":"shop"}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := domain.NamingConfig{BaseKeywords: "Chaussure Été", StartIndex: 0, Padding: 2, Prefix: "shop"}
	if eff.Naming != want {
		t.Fatalf("配置文件未生效：got=%+v want=%+v", eff.Naming, want)
	}

	eff2, err := LoadEffective(cwd, CLIArgs{
		Keywords:      "sac",
		KeywordsSet:   true,
		Padding:       3,
		PaddingSet:    true,
		Prefix:        "",
		PrefixSet:     true,
		StartIndex:    10,
		StartIndexSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want2 := domain.NamingConfig{BaseKeywords: "sac", StartIndex: 10, Padding: 3}
	if eff2.Naming != want2 {
		t.Fatalf("CLI 应覆盖配置文件：got=%+v want=%+v", eff2.Naming, want2)
	}
}

func TestLoadEffective_CLIPath_ConfigOptional(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{Path: "root"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != root {
		t.Fatalf("期望 path=%q，实际=%q", root, eff.Path)
	}
	if eff.Mover != DefaultMover || eff.ConfigFile != "" {
		t.Fatalf("期望默认值，实际 %+v", eff)
	}
}

func TestLoadEffective_CLIPath_ReadsConfigInTarget(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(root, FileName), []byte(`{"mover":"copy","keywords_from":"page.html"}`))

	eff, err := LoadEffective(cwd, CLIArgs{Path: root})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Mover != "copy" {
		t.Fatalf("期望 mover=copy，实际 %q", eff.Mover)
	}
	if want := filepath.Join(root, "page.html"); eff.KeywordsFrom != want {
		t.Fatalf("keywords_from 应相对配置文件目录：got=%q want=%q", eff.KeywordsFrom, want)
	}
}

func TestLoadEffective_KeywordsFromURLKept(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{
		Path:            cwd,
		KeywordsFrom:    "https://shop.test/p/1",
		KeywordsFromSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.KeywordsFrom != "https://shop.test/p/1" {
		t.Fatalf("URL 应原样保留：%q", eff.KeywordsFrom)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"padding":     `{"path":"p","padding":4}`,
		"start_index": `{"path":"p","start_index":-1}`,
		"mover":       `{"path":"p","mover":"hardlink"}`,
		"proxy":       `{"path":"p","proxy":{"url":"http://[::1"}}`,
		"json":        `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(body))

			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_CLIInvalidPaddingWithoutConfig(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{Path: cwd, Padding: 0, PaddingSet: true})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
