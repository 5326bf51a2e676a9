//go:build unix

package fsx

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestRename_CrossDeviceEXDEV(t *testing.T) {
	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = old }()

	err := Rename("/a", "/b")
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if !IsCrossDevice(err) {
		t.Fatalf("期望 CrossDeviceError，实际：%T %v", err, err)
	}
}

func TestAutoMover_FallsBackToCopyWhenRenameUnsupported(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.EXDEV, syscall.ENOTSUP} {
		dir := t.TempDir()
		write(t, filepath.Join(dir, "a.jpg"), "A")

		old := renameFunc
		renameFunc = func(oldpath, newpath string) error {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: errno}
		}

		err := AutoMover{}.Move(dir, "a.jpg", "b.jpg")
		renameFunc = old
		if err != nil {
			t.Fatalf("errno=%v 时应回退 copy，实际错误：%v", errno, err)
		}
		if b, _ := os.ReadFile(filepath.Join(dir, "b.jpg")); string(b) != "A" {
			t.Fatalf("回退 copy 后内容不一致：%q", string(b))
		}
		if _, err := os.Stat(filepath.Join(dir, "a.jpg")); !os.IsNotExist(err) {
			t.Fatalf("回退 copy 后源文件应删除：err=%v", err)
		}
	}
}

func TestRenameMover_DoesNotFallBack(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.jpg"), "A")

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = old }()

	if err := (RenameMover{}).Move(dir, "a.jpg", "b.jpg"); !IsCrossDevice(err) {
		t.Fatalf("rename 策略不应回退，期望 CrossDeviceError，实际 %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); err != nil {
		t.Fatalf("源文件应保持原状：%v", err)
	}
}
