package cliphist

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultRetention 未固定条目的保留时长
	DefaultRetention = 7 * 24 * time.Hour
	// DefaultSchedule 清理周期
	DefaultSchedule = "@every 10m"
)

// Janitor 按计划清理过期的历史条目
type Janitor struct {
	cron      *cron.Cron
	history   *History
	retention time.Duration
}

func NewJanitor(history *History, retention time.Duration) *Janitor {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Janitor{
		cron:      cron.New(),
		history:   history,
		retention: retention,
	}
}

// Start 注册清理任务并启动调度器
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc(DefaultSchedule, func() {
		if n := j.history.Prune(j.retention); n > 0 {
			slog.Info("pruned clipboard history", "removed", n)
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop 停止调度器，等待在跑的任务结束
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
