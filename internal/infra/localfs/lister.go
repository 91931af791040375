package localfs

import (
	"os"
	"path/filepath"
	"strings"
)

// Lister enumerates video and record files on the shared filesystem,
// which is the only cross-run coordination mechanism the pipeline has.
type Lister struct{}

func NewLister() *Lister {
	return &Lister{}
}

// List returns the direct children of dir whose names contain any of the
// filter substrings. The match is deliberately a substring match, not a
// suffix match: filter ".mp4" also catches "clip.mp4.bak". A missing or
// unreadable directory is treated as empty.
func (l *Lister) List(dir string, filters []string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, f := range filters {
			if strings.Contains(name, f) {
				files = append(files, filepath.Join(dir, name))
				break
			}
		}
	}
	return files
}
