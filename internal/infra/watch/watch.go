// Package watch 在目录内容被外部改动时通知上层（只看直接子项，不递归）。
package watch

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 合并一次批量改名/拷贝产生的事件风暴。
const DefaultDebounce = 200 * time.Millisecond

// Dir 监听 dir 的结构变化（新建/删除/改名/写入），在一段静默期后调用 onChange。
//
// 以 '.' 开头的名字（锁文件、原子写临时文件）被忽略。
// 返回的 stop 可重复调用；stop 之后不会再触发 onChange。
func Dir(dir string, debounce time.Duration, onChange func()) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Clean(dir)); err != nil {
		_ = w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	var (
		mu      sync.Mutex
		timer   *time.Timer
		stopped bool
	)
	fire := func() {
		mu.Lock()
		if stopped {
			mu.Unlock()
			return
		}
		mu.Unlock()
		onChange()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevant(event) {
					continue
				}
				mu.Lock()
				if timer == nil {
					timer = time.AfterFunc(debounce, fire)
				} else {
					timer.Reset(debounce)
				}
				mu.Unlock()

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watcher: %s: %v", dir, err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			_ = w.Close()
			<-done
		})
	}, nil
}

func relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)
}
