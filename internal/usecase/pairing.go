package usecase

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/finwatch/finwatch-processing-service/internal/domain/entity"
)

// PairingEngine computes the work list for one batch cycle: it excludes
// raw videos that already have an emitted record, sorts the remainder,
// and pairs adjacent files for stereo processing. Cameras are expected
// to produce filenames that sort next to each other for one captured
// session, which is what makes lexicographic pairing work.
type PairingEngine struct {
	prefix string
}

func NewPairingEngine(recordPrefix string) *PairingEngine {
	return &PairingEngine{prefix: recordPrefix}
}

// BuildWorkList runs the full filter -> sort -> pair sequence.
func (p *PairingEngine) BuildWorkList(videos, records []string) []entity.VideoPair {
	remaining := p.ExcludeProcessed(videos, records)
	sort.Strings(remaining)
	return p.Pair(remaining)
}

// Token derives the identifying token from an emitted record's filename:
// the fragment after the record prefix, with the extension stripped. A
// record name without the prefix falls back to its whole base name.
func (p *PairingEngine) Token(recordPath string) string {
	token := filepath.Base(recordPath)
	if i := strings.Index(token, p.prefix); i >= 0 {
		token = token[i+len(p.prefix):]
	}
	if j := strings.LastIndex(token, "."); j >= 0 {
		token = token[:j]
	}
	return token
}

// ExcludeProcessed removes raw videos whose filename contains the token
// of an existing record. Removal is first-match: each record token
// removes at most one raw video, then the inner scan stops.
func (p *PairingEngine) ExcludeProcessed(videos, records []string) []string {
	remaining := make([]string, len(videos))
	copy(remaining, videos)

	for _, record := range records {
		token := p.Token(record)
		if token == "" {
			continue
		}
		for i, video := range remaining {
			if strings.Contains(video, token) {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return remaining
}

// Pair steps through the first half of the sorted list two indexes at a
// time, pairing each element with its successor modulo the list length.
// Odd leftovers past the stepped range wait for the next cycle; a single
// remaining video wraps around and pairs with itself.
func (p *PairingEngine) Pair(videos []string) []entity.VideoPair {
	n := len(videos)
	if n == 0 {
		return nil
	}
	var pairs []entity.VideoPair
	for i := 0; i < (n+1)/2; i += 2 {
		pairs = append(pairs, entity.NewVideoPair(videos[i], videos[(i+1)%n]))
	}
	return pairs
}
