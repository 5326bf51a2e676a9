package fsx

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	StrategyAuto   = "auto"
	StrategyRename = "rename"
	StrategyCopy   = "copy"
)

// Mover 是“目录内改名”的唯一边界：applier 不关心底层是原子 rename 还是 copy+delete。
//
// 约束：
// - from/to 都是 dir 下的文件名（不含路径分隔符）
// - 目标已存在时必须失败（ErrTargetExists），从不覆盖
type Mover interface {
	Name() string
	Move(dir, from, to string) error
}

// NewMover 按策略名构造 Mover；空串视为 auto。
func NewMover(strategy string) (Mover, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyAuto:
		return AutoMover{}, nil
	case StrategyRename:
		return RenameMover{}, nil
	case StrategyCopy:
		return CopyMover{}, nil
	default:
		return nil, fmt.Errorf("mover 只能是 auto、rename 或 copy，实际是 %q", strategy)
	}
}

// RenameMover 使用单次原子 rename。
type RenameMover struct{}

func (RenameMover) Name() string { return StrategyRename }

func (RenameMover) Move(dir, from, to string) error {
	src, dst, err := movePaths(dir, from, to)
	if err != nil {
		return err
	}
	if err := checkTarget(src, dst); err != nil {
		return err
	}
	return Rename(src, dst)
}

// CopyMover 使用三步回退：新建目标 -> 写入完整内容 -> 删除源文件。
//
// 删除源文件失败时会撤掉刚写好的目标，保证该条目要么完成、要么保持原状。
type CopyMover struct{}

func (CopyMover) Name() string { return StrategyCopy }

func (CopyMover) Move(dir, from, to string) error {
	src, dst, err := movePaths(dir, from, to)
	if err != nil {
		return err
	}
	if err := checkTarget(src, dst); err != nil {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := removeFunc(src); err != nil {
		_ = removeFunc(dst)
		return fmt.Errorf("删除源文件失败：%w", err)
	}
	return nil
}

// AutoMover 优先原子 rename；平台不支持（EXDEV/ENOTSUP/ENOSYS）时回退 copy+delete。
type AutoMover struct{}

func (AutoMover) Name() string { return StrategyAuto }

func (AutoMover) Move(dir, from, to string) error {
	err := RenameMover{}.Move(dir, from, to)
	if err == nil {
		return nil
	}
	if IsCrossDevice(err) || isRenameUnsupported(err) {
		return CopyMover{}.Move(dir, from, to)
	}
	return err
}

func movePaths(dir, from, to string) (string, string, error) {
	for _, n := range []string{from, to} {
		if n == "" || n == "." || n == ".." || strings.ContainsAny(n, `/\`) {
			return "", "", fmt.Errorf("非法文件名：%q", n)
		}
	}
	dir = filepath.Clean(dir)
	return filepath.Join(dir, from), filepath.Join(dir, to), nil
}
