package cliphist

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Save 把历史序列化为 JSON 写到 path
func (h *History) Save(path string) error {
	h.mu.Lock()
	data, err := json.MarshalIndent(h.entries, "", "  ")
	h.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load 从 path 读回历史，文件不存在时保持为空不报错
func (h *History) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	h.mu.Lock()
	h.entries = entries
	h.evictLocked()
	h.mu.Unlock()
	return nil
}
