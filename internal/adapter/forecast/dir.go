package forecast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSource implements domain.ForecastSource by reading {dir}/{key}.json.
type DirSource struct {
	dir string
}

// NewDirSource creates a source backed by a directory of forecast documents.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key {
		return nil, fmt.Errorf("invalid location key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key+".json"))
	if err != nil {
		return nil, fmt.Errorf("read forecast file: %w", err)
	}
	return data, nil
}
