//go:build unix

package fsx

import (
	"errors"
	"os"
	"syscall"
)

func isEXDEV(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var le *os.LinkError
	if errors.As(err, &le) && errors.Is(le.Err, syscall.EXDEV) {
		return true
	}
	return false
}

// isRenameUnsupported 判断底层文件系统是否根本不支持 rename（例如部分 FUSE/网络盘）。
func isRenameUnsupported(err error) bool {
	return errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.ENOSYS)
}
