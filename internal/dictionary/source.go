package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/annotext/annotation-platform/pkg/errors"
)

// Source supplies terms for one or more dictionaries. Load inserts every
// term into the registry's matchers and returns the total inserted.
type Source interface {
	Name() string
	Load(ctx context.Context, reg *Registry) (int, error)
}

// FileSource loads a single newline-delimited term file into one named
// dictionary.
type FileSource struct {
	Dictionary string
	Path       string
}

func (s FileSource) Name() string {
	return "file:" + s.Path
}

func (s FileSource) Load(ctx context.Context, reg *Registry) (int, error) {
	count, err := reg.Add(s.Dictionary).LoadTermsFile(s.Path)
	if err != nil {
		return count, fmt.Errorf("loading dictionary %q: %w", s.Dictionary, err)
	}
	return count, nil
}

// DirSource loads every *.txt file in a directory, one dictionary per file,
// named after the file's basename.
type DirSource struct {
	Dir string
}

func (s DirSource) Name() string {
	return "dir:" + s.Dir
}

func (s DirSource) Load(ctx context.Context, reg *Registry) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", apperrors.ErrDictionaryNotFound, s.Dir, err)
	}
	logger := slog.Default().With("component", "dictionary", "dir", s.Dir)
	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		count, err := FileSource{Dictionary: name, Path: filepath.Join(s.Dir, entry.Name())}.Load(ctx, reg)
		if err != nil {
			return total, err
		}
		logger.Info("dictionary loaded", "dictionary", name, "terms", count)
		total += count
	}
	return total, nil
}
