package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
)

// Sink writes one record document per processed video into the record
// directory. The filename embeds the video's base name as the token the
// pairing engine later matches against raw filenames, so existence of a
// record is detectable without parsing its content.
type Sink struct {
	dir    string
	prefix string
}

func NewSink(dir, prefix string) *Sink {
	return &Sink{dir: dir, prefix: prefix}
}

func (s *Sink) Write(videoPath string, doc entity.VideoRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create record dir: %w", err)
	}

	base := filepath.Base(videoPath)
	token := strings.TrimSuffix(base, filepath.Ext(base))
	out := filepath.Join(s.dir, s.prefix+token+".json")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	return out, nil
}
