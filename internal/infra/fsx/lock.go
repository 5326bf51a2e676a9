package fsx

import (
	"fmt"
	"path/filepath"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// LockFileName 放在被处理目录下；不是图片后缀，列目录时自然被忽略。
const LockFileName = ".imgren.lock"

// LockDir 独占锁定 dir（跨进程），直到返回的 unlock 被调用。
// 已被其它进程持有时阻塞等待。
//
// 解锁只释放锁，锁文件保留在目录中：删除后，正在等待旧文件的进程与新建文件的进程会同时持锁。
func LockDir(dir string) (unlock func() error, err error) {
	lockPath := filepath.Join(filepath.Clean(dir), LockFileName)

	f, err := lockedfile.Create(lockPath)
	if err != nil {
		return nil, fmt.Errorf("锁定目录失败：%w", err)
	}

	return func() error {
		if err := f.Close(); err != nil {
			return fmt.Errorf("释放目录锁失败：%w", err)
		}
		return nil
	}, nil
}
