package keywords

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_Priority(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{"h1", `<html><head><title>T | Shop</title><meta property="og:title" content="OG"></head><body><h1>  Chaussure
		Été </h1></body></html>`, "Chaussure Été"},
		{"og", `<html><head><title>T | Shop</title><meta property="og:title" content=" Sac Cuir "></head><body><h1> </h1></body></html>`, "Sac Cuir"},
		{"og markup", `<html><head><meta property="og:title" content="Sac &lt;b&gt;Cuir&lt;/b&gt; &amp; Co"></head></html>`, "Sac Cuir & Co"},
		{"title", `<html><head><title>Robe d'été | Ma Boutique</title></head><body></body></html>`, "Robe d'été"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.html))
			if err != nil {
				t.Fatalf("不期望错误：%v", err)
			}
			if got != tc.want {
				t.Fatalf("got=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestParse_NothingFound(t *testing.T) {
	if _, err := Parse([]byte(`<html><body><p>x</p></body></html>`)); err == nil {
		t.Fatalf("期望错误")
	}
	if _, err := Parse(nil); err == nil {
		t.Fatalf("空 html 期望错误")
	}
}

func TestResolve_LocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(p, []byte(`<h1>Chaussure Été</h1>`), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	got, err := Resolve(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != "Chaussure Été" {
		t.Fatalf("got=%q", got)
	}
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.html"), nil)
	var e *Error
	if !errors.As(err, &e) || e.Stage != StageRead {
		t.Fatalf("期望 read 阶段错误，实际 %v", err)
	}
}

func TestResolve_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Sac à main"></head></html>`))
	}))
	defer srv.Close()

	got, err := Resolve(context.Background(), srv.URL+"/p/1", srv.Client())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != "Sac à main" {
		t.Fatalf("got=%q", got)
	}
}

func TestResolve_URLFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Resolve(context.Background(), srv.URL, srv.Client())
	var e *Error
	if !errors.As(err, &e) || e.Stage != StageFetch {
		t.Fatalf("期望 fetch 阶段错误，实际 %v", err)
	}
}
