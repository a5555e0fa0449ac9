package jsonldb

import (
	"bufio"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
)

// Cloner is implemented by types that can clone themselves.
type Cloner[T any] interface {
	Clone() T
}

// Table handles storage and in-memory caching for a single table in JSONL format.
type Table[T Cloner[T]] struct {
	path string
	mu   sync.RWMutex

	rows []T
}

// NewTable creates a new Table and loads all data from the file.
func NewTable[T Cloner[T]](path string) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: data directories are shared
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	table := &Table[T]{path: path}
	if err := table.Reload(); err != nil {
		return nil, err
	}
	return table, nil
}

// Path returns the backing file path.
func (t *Table[T]) Path() string {
	return t.path
}

// Reload discards the in-memory rows and reads the file again.
//
// A missing file loads as an empty table.
func (t *Table[T]) Reload() error {
	rows, err := readRows[T](t.path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.rows = rows
	t.mu.Unlock()
	return nil
}

// All returns an iterator over clones of all rows.
func (t *Table[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		for _, row := range t.rows {
			if !yield(row.Clone()) {
				return
			}
		}
	}
}

// Modify runs fn over clones of the current rows and persists what it returns.
//
// The write lock is held for the whole cycle. If fn returns an error nothing
// is written.
func (t *Table[T]) Modify(fn func(rows []T) ([]T, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := make([]T, len(t.rows))
	for i, row := range t.rows {
		cur[i] = row.Clone()
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return t.replaceLocked(next)
}

func (t *Table[T]) replaceLocked(rows []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	writer := bufio.NewWriter(tmp)
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close table file: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("failed to rename table file: %w", err)
	}
	t.rows = rows
	return nil
}

func readRows[T any](path string) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is owned by the table
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to open table file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows := []T{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row in %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table file %s: %w", path, err)
	}
	return rows, nil
}
