// Package worldclock 把一个参考时刻换算到一组城市时区。
package worldclock

import (
	"errors"
	"fmt"
	"sync"
	"time"
	// 内嵌 tzdata，宿主缺少 zoneinfo 时仍可解析时区
	_ "time/tzdata"

	"github.com/segmentio/ksuid"
)

// ErrNotFound 列表里没有这个时钟
var ErrNotFound = errors.New("clock not found")

type Clock struct {
	ID   string `json:"id"`
	City string `json:"city"`
	Zone string `json:"zone"` // IANA 时区名，如 "Asia/Shanghai"
}

// Reading 某个城市在参考时刻的本地读数
type Reading struct {
	Clock  Clock
	Local  time.Time
	Abbrev string // 时区缩写，如 CST、PDT
	// DayOffset 相对参考时刻所在日期的天数差：-1 昨天 / 0 今天 / +1 明天
	DayOffset int
}

// Board 一组有序的世界时钟
type Board struct {
	mu     sync.Mutex
	clocks []Clock
	home   *time.Location
	now    func() time.Time
}

func NewBoard() *Board {
	return &Board{home: time.Local, now: time.Now}
}

// Add 校验时区后追加一个时钟
func (b *Board) Add(city, zone string) (Clock, error) {
	if _, err := time.LoadLocation(zone); err != nil {
		return Clock{}, fmt.Errorf("load location %q: %w", zone, err)
	}

	c := Clock{ID: ksuid.New().String(), City: city, Zone: zone}
	b.mu.Lock()
	b.clocks = append(b.clocks, c)
	b.mu.Unlock()
	return c, nil
}

func (b *Board) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.clocks {
		if b.clocks[i].ID == id {
			b.clocks = append(b.clocks[:i], b.clocks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Move 把 from 位置的时钟挪到 to 位置（拖拽排序）
func (b *Board) Move(from, to int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.clocks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d out of range [0,%d)", from, to, n)
	}

	c := b.clocks[from]
	b.clocks = append(b.clocks[:from], b.clocks[from+1:]...)
	b.clocks = append(b.clocks[:to], append([]Clock{c}, b.clocks[to:]...)...)
	return nil
}

// Clocks 返回当前顺序的拷贝
func (b *Board) Clocks() []Clock {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Clock, len(b.clocks))
	copy(out, b.clocks)
	return out
}

// Readings 把参考时刻换算到每个时钟的时区
func (b *Board) Readings(ref time.Time) ([]Reading, error) {
	b.mu.Lock()
	clocks := make([]Clock, len(b.clocks))
	copy(clocks, b.clocks)
	home := b.home
	b.mu.Unlock()

	refDay := startOfDay(ref.In(home))

	out := make([]Reading, 0, len(clocks))
	for _, c := range clocks {
		loc, err := time.LoadLocation(c.Zone)
		if err != nil {
			return nil, fmt.Errorf("load location %q: %w", c.Zone, err)
		}

		local := ref.In(loc)
		abbrev, _ := local.Zone()
		out = append(out, Reading{
			Clock:     c,
			Local:     local,
			Abbrev:    abbrev,
			DayOffset: dayOffset(refDay, startOfDay(local)),
		})
	}
	return out, nil
}

// Now 用当前时刻做一次换算
func (b *Board) Now() ([]Reading, error) {
	return b.Readings(b.now())
}

// DayLabel 把天数差转成用户可读的标签
func DayLabel(offset int) string {
	switch offset {
	case -1:
		return "yesterday"
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	}
	return fmt.Sprintf("%+dd", offset)
}

// startOfDay 取 t 所在时区的当天零点，换算成 UTC 日期做差
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayOffset(ref, local time.Time) int {
	return int(local.Sub(ref).Hours() / 24)
}
