package codedetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "plain_prose",
			text: "hello world",
			want: false,
		},
		{
			name: "empty",
			text: "",
			want: false,
		},
		{
			name: "fenced_block",
			text: "```lua\nprint(1)\n```",
			want: true,
		},
		{
			name: "inline_code_span",
			text: "use `game:GetService(\"Players\")` for that",
			want: true,
		},
		{
			name: "function_declaration",
			text: "function onTouched(part)",
			want: true,
		},
		{
			name: "local_assignment",
			text: "local speed = 16",
			want: true,
		},
		{
			name: "if_then",
			text: "if health <= 0 then",
			want: true,
		},
		{
			name: "for_do",
			text: "for i = 1, 10 do",
			want: true,
		},
		{
			name: "while_do",
			text: "while true do",
			want: true,
		},
		{
			name: "bare_end_line",
			text: "some text\nend\n",
			want: true,
		},
		{
			name: "prose_mentioning_function_word",
			text: "what is the function of the workspace?",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestDetectDeterministic(t *testing.T) {
	inputs := []string{"hello world", "```lua\nprint(1)\n```", "local x = 1"}

	for _, input := range inputs {
		first := Detect(input)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Detect(input))
		}
	}
}

func TestCountFencedBlocks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"no_fences", "hello world", 0},
		{"one_block", "```lua\nprint(1)\n```", 1},
		{"two_blocks", "```lua\na\n```\ntext\n```lua\nb\n```", 2},
		{"unpaired_fence", "```lua\nprint(1)", 0},
		{"three_fences", "```a``` and ```", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountFencedBlocks(tt.text))
		})
	}
}
