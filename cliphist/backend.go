package cliphist

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
)

// Backend 抽象系统剪贴板，便于在无头环境下测试
type Backend interface {
	Read() (string, error)
	Write(text string) error
}

// SystemBackend 通过系统剪贴板读写
type SystemBackend struct{}

func NewSystemBackend() (*SystemBackend, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("clipboard operations not supported on %s", runtime.GOOS)
	}
	return &SystemBackend{}, nil
}

func (s *SystemBackend) Read() (string, error) {
	return clipboard.ReadAll()
}

func (s *SystemBackend) Write(text string) error {
	return clipboard.WriteAll(text)
}

// Watcher 轮询剪贴板，把变化写进历史。
// 系统剪贴板没有跨平台的变更通知，只能轮询。
type Watcher struct {
	backend  Backend
	history  *History
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

const DefaultPollInterval = 500 * time.Millisecond

func NewWatcher(backend Backend, history *History, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		backend:  backend,
		history:  history,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动轮询 goroutine
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			text, err := w.backend.Read()
			if err != nil {
				slog.Debug("clipboard read failed", "error", err)
				continue
			}
			if text == last {
				continue
			}
			last = text
			if _, added := w.history.Add(text); added {
				slog.Debug("clipboard change recorded", "length", len(text))
			}
		}
	}
}

// Stop 停止轮询并等待 goroutine 退出
func (w *Watcher) Stop() {
	close(w.stop)
	<-w.done
}

// Restore 把历史条目写回系统剪贴板
func Restore(backend Backend, h *History, id string) error {
	e, err := h.Get(id)
	if err != nil {
		return err
	}
	return backend.Write(e.Text)
}
