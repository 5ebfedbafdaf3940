// Package library loads section rule files and caches them per section type.
package library

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/rcliao/section-j/internal/model"
)

var (
	// ErrLibraryNotFound means no section files exist for a section type.
	ErrLibraryNotFound = errors.New("library not found")
	// ErrMalformedRules means a section file failed validation.
	ErrMalformedRules = errors.New("malformed rules")
)

// DefaultSectionType is the section type used when none is requested.
const DefaultSectionType = "section-j"

//go:embed data
var embedded embed.FS

// Embedded returns the section library compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Source loads all section definitions of a section type.
type Source interface {
	Load(ctx context.Context, sectionType string) ([]model.SectionDefinition, error)
}

// Lister is implemented by sources that can enumerate their section types.
type Lister interface {
	Types(ctx context.Context) ([]string, error)
}

// FSLoader reads <sectionType>/<sectionId>.json files from a filesystem.
type FSLoader struct {
	FS fs.FS
}

// NewFSLoader creates a loader over fsys.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{FS: fsys}
}

func (l *FSLoader) Load(ctx context.Context, sectionType string) ([]model.SectionDefinition, error) {
	if !validType(sectionType) {
		return nil, fmt.Errorf("%w: invalid section type %q", ErrLibraryNotFound, sectionType)
	}
	entries, err := fs.ReadDir(l.FS, sectionType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryNotFound, sectionType, err)
	}

	var defs []model.SectionDefinition
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(l.FS, path.Join(sectionType, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s/%s: %w", sectionType, e.Name(), err)
		}
		def, err := Decode(strings.TrimSuffix(e.Name(), ".json"), data)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", sectionType, e.Name(), err)
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: %s has no section files", ErrLibraryNotFound, sectionType)
	}
	return defs, nil
}

// Types lists the section types present in the filesystem.
func (l *FSLoader) Types(_ context.Context) ([]string, error) {
	entries, err := fs.ReadDir(l.FS, ".")
	if err != nil {
		return nil, err
	}
	var types []string
	for _, e := range entries {
		if e.IsDir() {
			types = append(types, e.Name())
		}
	}
	return types, nil
}

func validType(sectionType string) bool {
	return sectionType != "" && sectionType != "." && !strings.ContainsAny(sectionType, `/\`) && fs.ValidPath(sectionType)
}

// Memory is an in-memory library keyed by section type.
type Memory map[string][]model.SectionDefinition

func (m Memory) Load(_ context.Context, sectionType string) ([]model.SectionDefinition, error) {
	defs, ok := m[sectionType]
	if !ok || len(defs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, sectionType)
	}
	for _, d := range defs {
		if err := Validate(d); err != nil {
			return nil, fmt.Errorf("%s/%s: %w", sectionType, d.SectionID, err)
		}
	}
	return defs, nil
}

func (m Memory) Types(_ context.Context) ([]string, error) {
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

// Cache memoizes a Source per section type. Loaded definitions are treated
// as immutable; callers must not modify them.
type Cache struct {
	src     Source
	mu      sync.Mutex
	entries map[string][]model.SectionDefinition
}

// NewCache wraps src.
func NewCache(src Source) *Cache {
	return &Cache{src: src, entries: make(map[string][]model.SectionDefinition)}
}

// Load returns the cached definitions, loading them on first use. Failed
// loads are not cached.
func (c *Cache) Load(ctx context.Context, sectionType string) ([]model.SectionDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if defs, ok := c.entries[sectionType]; ok {
		return defs, nil
	}
	defs, err := c.src.Load(ctx, sectionType)
	if err != nil {
		return nil, err
	}
	c.entries[sectionType] = defs
	return defs, nil
}

// Types lists section types if the underlying source supports it.
func (c *Cache) Types(ctx context.Context) ([]string, error) {
	l, ok := c.src.(Lister)
	if !ok {
		return nil, errors.New("library source cannot list section types")
	}
	return l.Types(ctx)
}

// Preload loads every listed section type so malformed files fail at startup.
func (c *Cache) Preload(ctx context.Context) error {
	types, err := c.Types(ctx)
	if err != nil {
		return err
	}
	for _, t := range types {
		if _, err := c.Load(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
