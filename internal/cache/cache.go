// Package cache 缓存生成的汇编清单，源文件与生成选项不变时跳过代码生成。
//
// 缓存键是源文本与选项指纹的 BLAKE2b-256 摘要；索引以 JSON 保存在缓存目录中，
// 条目超过上限时按最近访问时间淘汰。
package cache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/crypto/blake2b"
)

const (
	// Version 缓存格式版本，不匹配时清空缓存
	Version = "1"

	// MaxEntries 最大缓存条目数
	MaxEntries = 256

	indexFile = "index.json"
)

// Manager 缓存管理器
type Manager struct {
	mu    sync.RWMutex
	dir   string
	index *Index
}

// Index 缓存索引
type Index struct {
	Version   string            `json:"version"`
	Entries   map[string]*Entry `json:"entries"`
	TotalSize int64             `json:"total_size"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Entry 缓存条目，以源文件路径为索引
type Entry struct {
	SourcePath   string    `json:"source_path"`
	Key          string    `json:"key"`
	File         string    `json:"file"`
	Size         int64     `json:"size"`
	Instructions int       `json:"instructions"`
	PoolEntries  int       `json:"pool_entries"`
	CreatedAt    time.Time `json:"created_at"`
	AccessedAt   time.Time `json:"accessed_at"`
	AccessCount  int       `json:"access_count"`
}

// Key 计算缓存键。fingerprint 须包含所有影响生成结果的因素（生成器版本、选项），
// 否则升级后会命中旧清单
func Key(source []byte, fingerprint string) string {
	buf := make([]byte, 0, len(source)+len(fingerprint)+1)
	buf = append(buf, fingerprint...)
	buf = append(buf, 0)
	buf = append(buf, source...)
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// Open 打开（必要时创建）缓存目录
func Open(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	m := &Manager{dir: dir}
	if err := m.loadIndex(); err != nil || m.index.Version != Version {
		// 索引损坏或版本不匹配时重建
		if err := m.Clear(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Get 查找源文件在给定键下的清单
func (m *Manager) Get(sourcePath, key string) (string, *Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.index.Entries[sourcePath]
	if !ok {
		return "", nil, false
	}
	if entry.Key != key {
		// 源文件或选项已变化
		m.removeEntryUnsafe(sourcePath)
		m.saveIndex()
		return "", nil, false
	}

	data, err := os.ReadFile(entry.File)
	if err != nil {
		m.removeEntryUnsafe(sourcePath)
		m.saveIndex()
		return "", nil, false
	}

	entry.AccessedAt = time.Now()
	entry.AccessCount++
	m.saveIndex()

	e := *entry
	return string(data), &e, true
}

// Put 保存清单
func (m *Manager) Put(sourcePath, key, listing string, instructions, poolEntries int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeEntryUnsafe(sourcePath)

	file := m.fileName(sourcePath, key)
	if err := os.WriteFile(file, []byte(listing), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	entry := &Entry{
		SourcePath:   sourcePath,
		Key:          key,
		File:         file,
		Size:         int64(len(listing)),
		Instructions: instructions,
		PoolEntries:  poolEntries,
		CreatedAt:    now,
		AccessedAt:   now,
		AccessCount:  1,
	}
	m.index.Entries[sourcePath] = entry
	m.index.TotalSize += entry.Size
	m.index.UpdatedAt = now

	m.cleanupIfNeeded()
	return m.saveIndex()
}

// Invalidate 使源文件的缓存条目失效，返回是否存在过该条目
func (m *Manager) Invalidate(sourcePath string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.index.Entries[sourcePath]; !ok {
		return false, nil
	}
	m.removeEntryUnsafe(sourcePath)
	return true, m.saveIndex()
}

// Clear 清空所有缓存
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".s" {
				os.Remove(filepath.Join(m.dir, e.Name()))
			}
		}
	}

	m.index = &Index{
		Version: Version,
		Entries: make(map[string]*Entry),
	}
	return m.saveIndex()
}

// Stats 缓存统计信息
type Stats struct {
	Entries   int
	TotalSize int64
	Dir       string
	UpdatedAt time.Time
}

// Stats 获取缓存统计
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Entries:   len(m.index.Entries),
		TotalSize: m.index.TotalSize,
		Dir:       m.dir,
		UpdatedAt: m.index.UpdatedAt,
	}
}

// ============================================================================
// 内部方法
// ============================================================================

func (m *Manager) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(m.dir, indexFile))
	if err != nil {
		return err
	}
	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return err
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}
	m.index = idx
	return nil
}

func (m *Manager) saveIndex() error {
	data, err := json.MarshalIndent(m.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, indexFile), data, 0644)
}

// fileName 源路径摘要与缓存键前缀组合成文件名
func (m *Manager) fileName(sourcePath, key string) string {
	pathHash := blake2b.Sum256([]byte(sourcePath))
	name := hex.EncodeToString(pathHash[:8]) + "_" + key[:16] + ".s"
	return filepath.Join(m.dir, name)
}

// removeEntryUnsafe 删除缓存条目（不加锁）
func (m *Manager) removeEntryUnsafe(sourcePath string) {
	entry, ok := m.index.Entries[sourcePath]
	if !ok {
		return
	}
	os.Remove(entry.File)
	m.index.TotalSize -= entry.Size
	delete(m.index.Entries, sourcePath)
}

// cleanupIfNeeded 超过上限时淘汰最久未访问的条目
func (m *Manager) cleanupIfNeeded() {
	excess := len(m.index.Entries) - MaxEntries
	if excess <= 0 {
		return
	}

	entries := make([]*Entry, 0, len(m.index.Entries))
	for _, e := range m.index.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessedAt.Before(entries[j].AccessedAt)
	})
	for _, e := range entries[:excess] {
		m.removeEntryUnsafe(e.SourcePath)
	}
}
