package catalog

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/msageha/flowguide/internal/logging"
	"github.com/msageha/flowguide/templates"
)

// DefaultFile is the name of the embedded default dataset.
const DefaultFile = "catalog.yaml"

// Loader loads and compiles catalog files. A file is recompiled only when
// its modification time or size differs from the ones seen at the last load.
type Loader struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
	stamps   map[string]fileStamp
	logger   *logging.Logger
}

// fileStamp is what a file looked like when it was last compiled.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(info os.FileInfo) fileStamp {
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}

func (s fileStamp) matches(info os.FileInfo) bool {
	return s.modTime.Equal(info.ModTime()) && s.size == info.Size()
}

func NewLoader(logger *logging.Logger) *Loader {
	return &Loader{
		catalogs: make(map[string]*Catalog),
		stamps:   make(map[string]fileStamp),
		logger:   logger.With("catalog"),
	}
}

// Load reads path, or the embedded dataset when path is empty.
func (l *Loader) Load(path string) (*Catalog, error) {
	if path == "" {
		return l.LoadDefault()
	}
	return l.LoadFromFile(path)
}

// LoadDefault compiles the dataset embedded in the binary.
func (l *Loader) LoadDefault() (*Catalog, error) {
	data, err := fs.ReadFile(templates.FS, DefaultFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	cat, err := l.LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return cat, nil
}

// LoadFromFile compiles path, reusing the previous result while the file is
// unchanged.
func (l *Loader) LoadFromFile(path string) (*Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if stamp, ok := l.stamps[path]; ok && stamp.matches(info) {
		if cat, ok := l.catalogs[path]; ok {
			l.logger.Debugf("cache hit path=%s", path)
			return cat, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	cat, err := l.compileBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog in %s: %w", path, err)
	}

	// The stamp is taken before reading, so an edit racing the read shows
	// up as a mismatch on the next check.
	l.catalogs[path] = cat
	l.stamps[path] = stampOf(info)
	l.logger.Infof("loaded path=%s courses=%d checksum=%.12s", path, len(cat.courses), cat.checksum)

	return cat, nil
}

// LoadFromBytes loads a catalog from YAML bytes
func (l *Loader) LoadFromBytes(data []byte) (*Catalog, error) {
	return l.compileBytes(data)
}

func (l *Loader) compileBytes(data []byte) (*Catalog, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	cat, err := Compile(doc)
	if err != nil {
		return nil, err
	}
	if warnings := cat.Lint(); len(warnings) > 0 {
		for _, w := range warnings {
			l.logger.Warnf("lint: %s", w)
		}
	}
	return cat, nil
}

// ReloadFile recompiles path when it changed since the last load. The
// boolean reports whether a fresh catalog was compiled.
func (l *Loader) ReloadFile(path string) (*Catalog, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	l.mu.RLock()
	stamp, seen := l.stamps[path]
	cat := l.catalogs[path]
	l.mu.RUnlock()

	if seen && stamp.matches(info) && cat != nil {
		return cat, false, nil
	}
	cat, err = l.LoadFromFile(path)
	return cat, err == nil, err
}

// ParseDocument decodes a dataset, rejecting unknown fields.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("YAML decode error: %w", err)
	}

	return &doc, nil
}
