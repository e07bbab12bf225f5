// Package cliphist 维护一份有上限、最近优先的剪贴板文本历史。
package cliphist

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

const DefaultLimit = 100

// ErrNotFound 历史里没有这个条目
var ErrNotFound = errors.New("history entry not found")

type Entry struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Pinned   bool      `json:"pinned"`
	CopiedAt time.Time `json:"copied_at"`
}

// History 是并发安全的历史记录。条目按最近复制排序；
// 固定（pinned）的条目不会被容量淘汰和过期清理带走。
type History struct {
	mu      sync.Mutex
	limit   int
	entries []Entry // 最近的在前

	now func() time.Time
}

func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit, now: time.Now}
}

// Add 记录一次复制。与最新条目内容相同时只刷新时间戳，不产生新条目；
// 返回条目和是否真的新增。空白内容被忽略。
func (h *History) Add(text string) (Entry, bool) {
	if strings.TrimSpace(text) == "" {
		return Entry{}, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) > 0 && h.entries[0].Text == text {
		h.entries[0].CopiedAt = h.now()
		return h.entries[0], false
	}

	e := Entry{
		ID:       ksuid.New().String(),
		Text:     text,
		CopiedAt: h.now(),
	}
	h.entries = append([]Entry{e}, h.entries...)
	h.evictLocked()
	return e, true
}

// evictLocked 超出容量时从尾部淘汰未固定的条目
func (h *History) evictLocked() {
	over := len(h.entries) - h.limit
	for i := len(h.entries) - 1; over > 0 && i >= 0; i-- {
		if h.entries[i].Pinned {
			continue
		}
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
		over--
	}
}

// All 返回全部条目的拷贝，最近的在前
func (h *History) All() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Search 大小写不敏感的子串搜索
func (h *History) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return h.All()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Entry
	for _, e := range h.entries {
		if strings.Contains(strings.ToLower(e.Text), q) {
			out = append(out, e)
		}
	}
	return out
}

// Get 按 ID 取条目
func (h *History) Get(id string) (Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Pin 固定条目，使其免于淘汰与清理
func (h *History) Pin(id string) error { return h.setPinned(id, true) }

// Unpin 取消固定
func (h *History) Unpin(id string) error { return h.setPinned(id, false) }

func (h *History) setPinned(id string, pinned bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		if h.entries[i].ID == id {
			h.entries[i].Pinned = pinned
			return nil
		}
	}
	return ErrNotFound
}

// Remove 删除条目
func (h *History) Remove(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		if h.entries[i].ID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Clear 清空历史；keepPinned 为 true 时保留固定条目
func (h *History) Clear(keepPinned bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !keepPinned {
		h.entries = nil
		return
	}
	var kept []Entry
	for _, e := range h.entries {
		if e.Pinned {
			kept = append(kept, e)
		}
	}
	h.entries = kept
}

// Prune 删除超过 maxAge 的未固定条目，返回删除数量
func (h *History) Prune(maxAge time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().Add(-maxAge)
	removed := 0
	var kept []Entry
	for _, e := range h.entries {
		if !e.Pinned && e.CopiedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	h.entries = kept
	return removed
}

// Len 当前条目数
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
