package util

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "  Bring the 2 < 3 slides  ",
			want: "Bring the 2 < 3 slides",
		},
		{
			name: "paragraphs and breaks",
			in:   "<p>Agenda</p><p>Line one<br>Line two</p>",
			want: "Agenda\n\nLine one\nLine two",
		},
		{
			name: "list items",
			in:   "<ul><li>alpha</li><li>beta</li></ul>",
			want: "• alpha\n  • beta",
		},
		{
			name: "link with text",
			in:   `Join <a href="https://meet.example.com/x">here</a> please`,
			want: "Join here (https://meet.example.com/x) please",
		},
		{
			name: "link repeating its url",
			in:   `<a href="https://example.com">https://example.com</a>`,
			want: "https://example.com",
		},
		{
			name: "google redirect unwrapped",
			in:   `<a href="https://www.google.com/url?q=https%3A%2F%2Fdocs.example.com&amp;sa=D">doc</a>`,
			want: "doc (https://docs.example.com)",
		},
		{
			name: "entities decoded",
			in:   "<div>Tom &amp; Jerry&nbsp;meet</div>",
			want: "Tom & Jerry meet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HTMLToText(tt.in))
		})
	}
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	assert.True(t, IsHTML("<p>x</p>"))
	assert.True(t, IsHTML("a<br/>b"))
	assert.False(t, IsHTML("a < b and c > d"))
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", TruncateText("hello", 0))
	assert.Equal(t, "hello", TruncateText("hello", 5))
	assert.Equal(t, "hel…", TruncateText("hello", 4))
}

func TestLinkify(t *testing.T) {
	t.Parallel()

	out := Linkify("see https://example.com/a, then rest", 0)
	assert.Equal(t, "see "+MakeHyperlink("https://example.com/a", "https://example.com/a")+", then rest", out)
	assert.Equal(t, "see https://example.com/a, then rest", ansi.Strip(out))

	assert.Equal(t, "no links", Linkify("no links", 10))
}

func TestFirstURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://meet.example.com/x", FirstURL("Notes\n\nJoin: https://meet.example.com/x."))
	assert.Empty(t, FirstURL("nothing here"))
}
