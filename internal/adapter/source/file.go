// Package source opens scenario tables from a local data tree or a remote
// HTTP mirror of the same layout.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

// FileSource reads tables from <root>/<scenario dir>/<table file>.
type FileSource struct {
	root string
}

// NewFileSource creates a source rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{root: dir}
}

// Path returns the file a table is read from.
func (s *FileSource) Path(scenario domain.Scenario, table domain.TableName) string {
	return filepath.Join(s.root, scenario.Dir, table.File())
}

// Open opens one table. Missing or unreadable files are reported as
// domain.ErrDataUnavailable.
func (s *FileSource) Open(ctx context.Context, scenario domain.Scenario, table domain.TableName) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(scenario, table)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", domain.ErrDataUnavailable, path)
		}
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrDataUnavailable, path, err)
	}
	return f, nil
}

func (s *FileSource) String() string {
	return "file://" + s.root
}
