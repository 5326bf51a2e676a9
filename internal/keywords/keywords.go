// Package keywords 从商品页（本地 HTML 文件或 http(s) URL）推导命名用的基础关键词。
package keywords

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/John-Robertt/imgren/internal/infra/httpx"
)

const (
	StageFetch = "fetch"
	StageRead  = "read"
	StageParse = "parse"
)

// Error 标明失败发生在哪个阶段，便于给出可操作的提示。
type Error struct {
	Stage  string
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("关键词提取失败（%s）%q：%v", e.Stage, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Resolve 读取 src 并提取关键词。src 为 http(s) URL 时用 c 抓取（c 为空则报错），否则按本地文件读取。
func Resolve(ctx context.Context, src string, c *http.Client) (string, error) {
	src = strings.TrimSpace(src)

	var (
		page []byte
		err  error
	)
	if isURL(src) {
		if c == nil {
			return "", &Error{Stage: StageFetch, Source: src, Err: errors.New("http client 不能为空")}
		}
		page, err = httpx.FetchPage(ctx, c, src)
		if err != nil {
			return "", &Error{Stage: StageFetch, Source: src, Err: err}
		}
	} else {
		page, err = os.ReadFile(src)
		if err != nil {
			return "", &Error{Stage: StageRead, Source: src, Err: err}
		}
	}

	kw, err := Parse(page)
	if err != nil {
		return "", &Error{Stage: StageParse, Source: src, Err: err}
	}
	return kw, nil
}

// Parse 按优先级取商品名：首个 <h1> -> og:title -> <title>（去掉站点名后缀）。
func Parse(page []byte) (string, error) {
	if len(bytes.TrimSpace(page)) == 0 {
		return "", errors.New("html 为空")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	if s := normSpace(doc.Find("h1").First().Text()); s != "" {
		return s, nil
	}
	if s, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if s = normSpace(stripMarkup(s)); s != "" {
			return s, nil
		}
	}
	if s := stripSiteName(normSpace(doc.Find("title").First().Text())); s != "" {
		return s, nil
	}
	return "", errors.New("页面中没有 h1 / og:title / title")
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// stripSiteName: "Chaussure Été | Boutique" -> "Chaussure Été"
func stripSiteName(s string) string {
	for _, sep := range []string{" | ", " – ", " — ", " - "} {
		if i := strings.LastIndex(s, sep); i > 0 {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}

// 属性值不经过 HTML 解析：部分站点会把 <b>/<em> 等标记原样塞进 og:title。
var textOnly = bluemonday.StrictPolicy()

func stripMarkup(s string) string {
	return html.UnescapeString(textOnly.Sanitize(s))
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
