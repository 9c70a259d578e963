package chunker

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbase/internal/domain"
)

func TestNewWindowChunkerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		overlap int
	}{
		{"overlap equals window", 100, 100},
		{"overlap exceeds window", 100, 200},
		{"zero window", 0, 10},
		{"zero overlap", 100, 0},
		{"negative overlap", 100, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindowChunker(tt.window, tt.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

func TestChunkEmptyText(t *testing.T) {
	c, err := NewWindowChunker(100, 20)
	require.NoError(t, err)

	chunks, err := c.Chunk("doc1", "")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkShortText(t *testing.T) {
	c, err := NewWindowChunker(100, 20)
	require.NoError(t, err)

	chunks, err := c.Chunk("doc1", "short text")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "doc1:0000", chunks[0].ID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Overlap)
}

func TestChunkWindowAndOverlap(t *testing.T) {
	c, err := NewWindowChunker(10, 4)
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks, err := c.Chunk("doc1", text)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	assert.Equal(t, "abcdefghij", chunks[0].Text)
	assert.Equal(t, "ghijklmnop", chunks[1].Text)
	assert.Equal(t, "mnopqrstuv", chunks[2].Text)
	assert.Equal(t, "stuvwxyz", chunks[3].Text)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc1", chunk.DocID)
	}
}

// The chunk sequence must cover the source text with no gaps, with adjacent
// chunks sharing exactly the configured overlap as a suffix/prefix match.
// Exercised over random text lengths and configs with overlap < window.
func TestChunkCoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		window := 2 + rng.Intn(200)
		overlap := 1 + rng.Intn(window-1)
		textLen := rng.Intn(5000)

		var b strings.Builder
		for i := 0; i < textLen; i++ {
			b.WriteByte(byte('a' + rng.Intn(26)))
		}
		text := b.String()

		c, err := NewWindowChunker(window, overlap)
		require.NoError(t, err)

		chunks, err := c.Chunk("doc", text)
		require.NoError(t, err)

		label := fmt.Sprintf("window=%d overlap=%d len=%d", window, overlap, textLen)

		if textLen == 0 {
			assert.Empty(t, chunks, label)
			continue
		}
		require.NotEmpty(t, chunks, label)

		// Reassemble: each chunk after the first contributes everything
		// past its overlap region. The result must equal the source.
		var rebuilt strings.Builder
		rebuilt.WriteString(chunks[0].Text)
		for i := 1; i < len(chunks); i++ {
			prev := chunks[i-1].Text
			cur := chunks[i].Text
			ov := chunks[i].Overlap

			require.LessOrEqual(t, ov, len(cur), label)
			assert.Equal(t, prev[len(prev)-ov:], cur[:ov],
				"%s: chunk %d overlap is not a suffix/prefix match", label, i)
			rebuilt.WriteString(cur[ov:])
		}
		assert.Equal(t, text, rebuilt.String(), label)

		// Sequence indices are monotonically increasing with no gaps.
		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Index, label)
			assert.LessOrEqual(t, len(chunk.Text), window, label)
		}
	}
}

func TestChunkIDsSortInSequenceOrder(t *testing.T) {
	c, err := NewWindowChunker(5, 1)
	require.NoError(t, err)

	chunks, err := c.Chunk("doc", strings.Repeat("x", 100))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 10)

	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i-1].ID, chunks[i].ID)
	}
}
