package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/naming"
)

// ErrCanceled 表示用户取消了目录选择。它不是错误状态，上层应静默回到 Idle。
var ErrCanceled = errors.New("目录选择已取消")

// SelectionError 表示目录选择失败（不可访问/不是目录/列目录失败），不包括用户取消。
type SelectionError struct {
	Path string
	Err  error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("无法访问目录 %q：%v", e.Path, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// IsSelectionError 判断 err 是否为 SelectionError。
func IsSelectionError(err error) bool {
	var e *SelectionError
	return errors.As(err, &e)
}

// Select 把用户给出的路径解析为 clean + absolute 的目录路径。
//
// - 空串（或纯空白）视为取消：返回 ErrCanceled
// - 支持 ~ 展开
// - 路径不存在/不是目录：返回 SelectionError
func Select(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrCanceled
	}

	exp, err := homedir.Expand(path)
	if err != nil {
		return "", &SelectionError{Path: path, Err: err}
	}
	abs, err := filepath.Abs(filepath.Clean(exp))
	if err != nil {
		return "", &SelectionError{Path: path, Err: err}
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return "", &SelectionError{Path: abs, Err: err}
	}
	if !fi.IsDir() {
		return "", &SelectionError{Path: abs, Err: errors.New("不是目录")}
	}
	return abs, nil
}

// ListImages 列出 dir 的直接子项中的图片文件，并按自然顺序排序。
//
// 规则（硬约束）：
// - 只看直接子项，不递归；子目录忽略
// - 文件名（小写）以 .jpg/.jpeg/.png 结尾
// - 只做 stat，不读文件内容
func ListImages(dir string) ([]domain.SourceEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &SelectionError{Path: dir, Err: err}
	}

	files := make([]domain.SourceEntry, 0, len(entries))
	for _, d := range entries {
		if d.IsDir() {
			continue
		}
		name := d.Name()
		if !IsImageName(name) {
			continue
		}

		info, err := entryInfo(dir, d)
		if err != nil {
			return nil, &SelectionError{Path: filepath.Join(dir, name), Err: err}
		}
		if info == nil {
			continue
		}

		files = append(files, domain.SourceEntry{
			OriginalName: name,
			Extension:    naming.Extension(name),
			LastModified: info.ModTime().UnixMilli(),
			Size:         info.Size(),
		})
	}

	SortNatural(files)
	return files, nil
}

// entryInfo 返回常规文件的 FileInfo；符号链接会跟随一次，指向目录时返回 nil。
func entryInfo(dir string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		fi, err := os.Stat(filepath.Join(dir, d.Name()))
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			return nil, nil
		}
		return fi, nil
	}
	return d.Info()
}

// IsImageName 按文件名后缀（忽略大小写）判断是否为支持的图片。
func IsImageName(name string) bool {
	low := strings.ToLower(name)
	return strings.HasSuffix(low, ".jpg") || strings.HasSuffix(low, ".jpeg") || strings.HasSuffix(low, ".png")
}

// SortNatural 按“数字按数值比较、忽略大小写与重音”的自然顺序原地排序；
// 比较结果相同时回退字节序，保证输出稳定。
func SortNatural(files []domain.SourceEntry) {
	// Collator 不是并发安全的：每次排序单独构造。
	c := collate.New(language.Und, collate.Loose, collate.Numeric)
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].OriginalName, files[j].OriginalName
		if r := c.CompareString(a, b); r != 0 {
			return r < 0
		}
		return a < b
	})
}
