package export

import (
	"fmt"
	"path/filepath"

	"github.com/RoNRiShaV/dfd/internal/util"
)

// DirSaver writes documents into a directory
type DirSaver struct {
	dir string
}

// NewDirSaver creates a saver for dir; "~" is expanded
func NewDirSaver(dir string) *DirSaver {
	if dir == "" {
		dir = "."
	}
	return &DirSaver{dir: util.ExpandHome(dir)}
}

// Save writes data to dir/filename atomically
func (s *DirSaver) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := util.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("save %s: %w", filename, err)
	}
	return path, nil
}
