package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sumitkamra20/insightgen/internal/domain"
)

// Source supplies raw generator definitions keyed by origin (file name or
// store key). The registry parses and validates them.
type Source interface {
	// Load returns the raw YAML of every definition, keyed by origin.
	Load() (map[string][]byte, error)

	// Name identifies the source in logs.
	Name() string
}

// DirSource loads generator definitions from YAML files in a directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a directory-backed source.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Name() string {
	return fmt.Sprintf("dir:%s", s.dir)
}

// Load reads every *.yaml file in the directory, in name order.
func (s *DirSource) Load() (map[string][]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot read generators directory %s", s.dir), err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(entry.Name())); ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("cannot read generator file %s", name), err)
		}
		docs[name] = data
	}

	return docs, nil
}
