// Package toolbox 维护工具卡片的顺序与搜索，GUI 只负责渲染它。
package toolbox

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound 注册表里没有这个工具
var ErrNotFound = errors.New("tool not found")

type Tool struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

type Registry struct {
	mu    sync.Mutex
	tools []Tool
}

// Defaults 内置工具集，默认顺序
func Defaults() *Registry {
	return &Registry{tools: []Tool{
		{ID: "bgremover", Name: "Background Remover", Keywords: []string{"image", "background", "transparent", "matting"}},
		{ID: "worldclock", Name: "World Clocks", Keywords: []string{"time", "timezone", "city"}},
		{ID: "cliphist", Name: "Clipboard History", Keywords: []string{"clipboard", "copy", "paste"}},
		{ID: "ocr", Name: "Screenshot OCR", Keywords: []string{"screenshot", "text", "recognize"}},
	}}
}

// Tools 当前顺序的拷贝
func (r *Registry) Tools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// ByID 按 ID 查找
func (r *Registry) ByID(id string) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tools {
		if t.ID == id {
			return t, nil
		}
	}
	return Tool{}, ErrNotFound
}

// Move 拖拽排序：把 from 位置的卡片挪到 to
func (r *Registry) Move(from, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.tools)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d out of range [0,%d)", from, to, n)
	}

	t := r.tools[from]
	r.tools = append(r.tools[:from], r.tools[from+1:]...)
	r.tools = append(r.tools[:to], append([]Tool{t}, r.tools[to:]...)...)
	return nil
}

// Search 名字或关键词的大小写不敏感匹配
func (r *Registry) Search(query string) []Tool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.Tools()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Tool
	for _, t := range r.tools {
		if matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t Tool, q string) bool {
	if strings.Contains(strings.ToLower(t.Name), q) {
		return true
	}
	for _, k := range t.Keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}
