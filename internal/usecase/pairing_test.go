package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenDerivation(t *testing.T) {
	p := NewPairingEngine("DE_")

	assert.Equal(t, "left_001", p.Token("static/video-info/DE_left_001.json"))
	assert.Equal(t, "left_001.mp4", p.Token("DE_left_001.mp4.json"))
	// Without the prefix the whole base name (minus extension) is used.
	assert.Equal(t, "stray", p.Token("stray.json"))
}

func TestExcludeProcessedFirstMatchOnly(t *testing.T) {
	p := NewPairingEngine("DE_")
	videos := []string{
		"videos/session_a.mp4",
		"videos/session_ab.mp4",
		"videos/session_c.mp4",
	}

	// The token "session_a" matches two raw videos; only the first is
	// removed.
	remaining := p.ExcludeProcessed(videos, []string{"records/DE_session_a.json"})
	assert.Equal(t, []string{"videos/session_ab.mp4", "videos/session_c.mp4"}, remaining)
}

func TestExcludeProcessedKeepsUnmatched(t *testing.T) {
	p := NewPairingEngine("DE_")
	videos := []string{"videos/a.mp4", "videos/b.mp4"}

	remaining := p.ExcludeProcessed(videos, []string{"records/DE_zzz.json"})
	assert.Equal(t, videos, remaining)
}

func TestPairFiveVideos(t *testing.T) {
	p := NewPairingEngine("DE_")
	pairs := p.Pair([]string{"a", "b", "c", "d", "e"})

	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].VideoA)
	assert.Equal(t, "b", pairs[0].VideoB)
	assert.Equal(t, "c", pairs[1].VideoA)
	assert.Equal(t, "d", pairs[1].VideoB)
}

func TestPairThreeVideos(t *testing.T) {
	p := NewPairingEngine("DE_")
	pairs := p.Pair([]string{"a", "b", "c"})

	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].VideoA)
	assert.Equal(t, "b", pairs[0].VideoB)
}

func TestPairSingleVideoWrapsAround(t *testing.T) {
	p := NewPairingEngine("DE_")
	pairs := p.Pair([]string{"a"})

	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].VideoA)
	assert.Equal(t, "a", pairs[0].VideoB)
}

func TestPairEmpty(t *testing.T) {
	p := NewPairingEngine("DE_")
	assert.Empty(t, p.Pair(nil))
}

func TestBuildWorkListSortsBeforePairing(t *testing.T) {
	p := NewPairingEngine("DE_")
	pairs := p.BuildWorkList([]string{"d", "b", "a", "c"}, nil)

	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].VideoA)
	assert.Equal(t, "b", pairs[0].VideoB)
}
