package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates 为每个页面持有一份独立的模板集（都从 base 克隆），避免 {{define "content"}} 互相覆盖。
type Templates struct {
	index  *template.Template
	picker *template.Template
}

var tmplFuncs = template.FuncMap{
	"humanSize": humanSize,
	"add":       func(a, b int) int { return a + b },
}

// LoadTemplates 解析内嵌模板。
func LoadTemplates() (*Templates, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("sub fs: %w", err)
	}

	base, err := template.New("").Funcs(tmplFuncs).ParseFS(sub, "base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base: %w", err)
	}

	index, err := cloneAndParse(base, sub, "index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	picker, err := cloneAndParse(base, sub, "picker.html")
	if err != nil {
		return nil, fmt.Errorf("parse picker template: %w", err)
	}
	return &Templates{index: index, picker: picker}, nil
}

func cloneAndParse(base *template.Template, fsys fs.FS, name string) (*template.Template, error) {
	t, err := base.Clone()
	if err != nil {
		return nil, err
	}
	return t.ParseFS(fsys, name)
}

func (t *Templates) ExecuteIndex(w http.ResponseWriter, data *indexData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.index.ExecuteTemplate(w, "base", data)
}

func (t *Templates) ExecutePicker(w http.ResponseWriter, data *pickerData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.picker.ExecuteTemplate(w, "base", data)
}

// humanSize formats a byte count into a human-readable string.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n := n / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
