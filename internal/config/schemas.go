package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"gopkg.in/yaml.v2"
)

// errSchemaFormat is returned when the schema file is not a flat YAML mapping of strings.
var errSchemaFormat = fmt.Errorf("invalid schema registry format")

// Schema is one registry entry: a Redfish type name and the schema file describing it.
type Schema struct {
	Name string
	File string
}

// SchemaRegistry holds the ordered Redfish schema list served by $metadata.
// Readers always see a complete snapshot; Watch swaps in a new one on file writes.
type SchemaRegistry struct {
	// Log is the logger used while watching the backing file.
	Log logr.Logger

	path    string
	entries atomic.Pointer[[]Schema]
}

// NewSchemaRegistry returns a registry that is not backed by a file.
func NewSchemaRegistry(entries ...Schema) *SchemaRegistry {
	r := &SchemaRegistry{Log: logr.Discard()}
	r.store(entries)
	return r
}

// LoadSchemaRegistry reads an ordered YAML mapping of type name to schema file.
func LoadSchemaRegistry(l logr.Logger, path string) (*SchemaRegistry, error) {
	entries, err := readSchemas(path)
	if err != nil {
		return nil, err
	}

	r := &SchemaRegistry{Log: l, path: path}
	r.store(entries)
	return r, nil
}

// Entries returns a copy of the current snapshot in registry order.
func (r *SchemaRegistry) Entries() []Schema {
	p := r.entries.Load()
	if p == nil {
		return nil
	}
	out := make([]Schema, len(*p))
	copy(out, *p)
	return out
}

// Reload re-reads the backing file. On error the previous snapshot is kept.
func (r *SchemaRegistry) Reload() error {
	if r.path == "" {
		return nil
	}
	entries, err := readSchemas(r.path)
	if err != nil {
		return err
	}
	r.store(entries)
	return nil
}

// Watch reloads the registry whenever the backing file is written.
// Watch is a blocking method. Use a context cancellation to exit.
func (r *SchemaRegistry) Watch(ctx context.Context) error {
	if r.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		return err
	}

	target := filepath.Clean(r.path)
	for {
		select {
		case <-ctx.Done():
			r.Log.Info("stopping schema registry watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := r.Reload(); err != nil {
				r.Log.Error(err, "failed to reload schema registry, keeping previous entries", "file", r.path)
				continue
			}
			r.Log.Info("schema registry reloaded", "file", r.path, "schemas", len(r.Entries()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.Log.Info("error watching schema registry", "err", err)
		}
	}
}

func (r *SchemaRegistry) store(entries []Schema) {
	cp := make([]Schema, len(entries))
	copy(cp, entries)
	r.entries.Store(&cp)
}

func readSchemas(path string) ([]Schema, error) {
	d, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return parseSchemas(d)
}

func parseSchemas(d []byte) ([]Schema, error) {
	var ms yaml.MapSlice
	if err := yaml.Unmarshal(d, &ms); err != nil {
		return nil, fmt.Errorf("%w: %w", err, errSchemaFormat)
	}

	entries := make([]Schema, 0, len(ms))
	for _, item := range ms {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: key %v is not a string", errSchemaFormat, item.Key)
		}
		file, ok := item.Value.(string)
		if !ok || file == "" {
			return nil, fmt.Errorf("%w: schema %s has no file name", errSchemaFormat, name)
		}
		entries = append(entries, Schema{Name: name, File: file})
	}
	return entries, nil
}
