package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world", "Hello world."},
		{"heading and paragraph", "# Title\n\nSome *emphasis* here!", "Title. Some emphasis here!"},
		{"link keeps text", "See [the docs](https://example.com) now.", "See the docs now."},
		{"code block dropped", "Run it:\n\n```sh\nrm -rf /\n```\n\nDone", "Run it: Done."},
		{"inline code kept", "Call `Speak` twice", "Call Speak twice."},
		{"list items", "- one\n- two", "one. two."},
		{"soft breaks", "line one\nline two", "line one line two."},
		{"image alt", "![a cat](cat.png)", "a cat."},
		{"html dropped", "<div>x</div>\n\nText", "Text."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdown(tt.in))
		})
	}
}
