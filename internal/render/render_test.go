package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentsNoFence(t *testing.T) {
	segments := Segments("just a plain answer")

	require.Len(t, segments, 1)
	assert.Equal(t, SegmentText, segments[0].Type)
	assert.Equal(t, "just a plain answer", segments[0].Content)
}

func TestSegmentsSingleFence(t *testing.T) {
	input := "Berikut contohnya:\n```lua\nprint(\"hello\")\n```\nSemoga membantu!"

	segments := Segments(input)

	require.Len(t, segments, 3)

	assert.Equal(t, SegmentText, segments[0].Type)
	assert.Equal(t, "Berikut contohnya:\n", segments[0].Content)

	assert.Equal(t, SegmentCode, segments[1].Type)
	assert.Equal(t, "lua", segments[1].Language)
	assert.Equal(t, "print(\"hello\")", segments[1].Content)

	assert.Equal(t, SegmentText, segments[2].Type)
	assert.Equal(t, "\nSemoga membantu!", segments[2].Content)
}

func TestSegmentsDefaultLanguage(t *testing.T) {
	segments := Segments("```\nprint(1)\n```")

	require.Len(t, segments, 1)
	assert.Equal(t, SegmentCode, segments[0].Type)
	assert.Equal(t, "lua", segments[0].Language)
	assert.Equal(t, "print(1)", segments[0].Content)
}

func TestSegmentsAdjacentFences(t *testing.T) {
	input := "```lua\na = 1\n``````lua\nb = 2\n```"

	segments := Segments(input)

	require.Len(t, segments, 2)
	assert.Equal(t, SegmentCode, segments[0].Type)
	assert.Equal(t, "a = 1", segments[0].Content)
	assert.Equal(t, SegmentCode, segments[1].Type)
	assert.Equal(t, "b = 2", segments[1].Content)
}

func TestSegmentsMultipleBlocks(t *testing.T) {
	input := "first\n```lua\na\n```\nmiddle\n```python\nb\n```\nlast"

	segments := Segments(input)

	require.Len(t, segments, 5)
	assert.Equal(t, SegmentText, segments[0].Type)
	assert.Equal(t, SegmentCode, segments[1].Type)
	assert.Equal(t, "lua", segments[1].Language)
	assert.Equal(t, SegmentText, segments[2].Type)
	assert.Equal(t, SegmentCode, segments[3].Type)
	assert.Equal(t, "python", segments[3].Language)
	assert.Equal(t, SegmentText, segments[4].Type)
	assert.Equal(t, "\nlast", segments[4].Content)
}

func TestSegmentsStateless(t *testing.T) {
	input := "a\n```lua\nb\n```\nc"

	first := Segments(input)
	second := Segments(input)

	assert.Equal(t, first, second)
}
