package localstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"
	"github.com/imserv/voltage/internal/jsonldb"
)

// entry is one key/value pair, stored as one JSONL line.
type entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (e *entry) Clone() *entry {
	c := *e
	return &c
}

// File is a Store persisted to a JSONL file.
//
// Every Get re-reads the file so that writes made by another process are seen
// immediately, the way a browser tab sees another tab's local storage.
type File struct {
	table *jsonldb.Table[*entry]
}

// NewFile opens or creates the store at path.
func NewFile(path string) (*File, error) {
	table, err := jsonldb.NewTable[*entry](path)
	if err != nil {
		return nil, err
	}
	return &File{table: table}, nil
}

// Path returns the backing file.
func (f *File) Path() string {
	return f.table.Path()
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	if err := f.table.Reload(); err != nil {
		return "", false, err
	}
	for e := range f.table.All() {
		if e.Key == key {
			return e.Value, true, nil
		}
	}
	return "", false, nil
}

// Set implements Store.
func (f *File) Set(_ context.Context, key, value string) error {
	if err := f.table.Reload(); err != nil {
		return err
	}
	return f.table.Modify(func(rows []*entry) ([]*entry, error) {
		for _, e := range rows {
			if e.Key == key {
				e.Value = value
				return rows, nil
			}
		}
		return append(rows, &entry{Key: key, Value: value}), nil
	})
}

// Remove implements Store.
func (f *File) Remove(_ context.Context, key string) error {
	if err := f.table.Reload(); err != nil {
		return err
	}
	return f.table.Modify(func(rows []*entry) ([]*entry, error) {
		return slices.DeleteFunc(rows, func(e *entry) bool { return e.Key == key }), nil
	})
}

// snapshot returns the current values keyed by key.
func (f *File) snapshot() map[string]string {
	out := map[string]string{}
	for e := range f.table.All() {
		out[e.Key] = e.Value
	}
	return out
}

// Watch calls onChange with every key whose value changed on disk, until ctx
// is canceled.
//
// The directory is watched rather than the file because writes replace the
// file by renaming a temporary one over it.
func (f *File) Watch(ctx context.Context, onChange func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path())
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if err := f.table.Reload(); err != nil {
		_ = w.Close()
		return err
	}
	prev := f.snapshot()
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(f.Path()) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				if err := f.table.Reload(); err != nil {
					slog.WarnContext(ctx, "Failed to reload local storage", "path", f.Path(), "err", err)
					continue
				}
				cur := f.snapshot()
				for _, key := range changedKeys(prev, cur) {
					onChange(key)
				}
				prev = cur
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching local storage", "err", err)
			}
		}
	}()
	return nil
}

func changedKeys(prev, cur map[string]string) []string {
	var keys []string
	for k, v := range cur {
		if old, ok := prev[k]; !ok || old != v {
			keys = append(keys, k)
		}
	}
	for k := range prev {
		if _, ok := cur[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
