package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"tags", "<p>Hello <b>World</b></p>", "Hello World"},
		{"script", `<script>alert("x")</script>ok`, "ok"},
		{"entities", "a &amp; b", "a & b"},
		{"whitespace", "<p>a</p>\n\n   <p>b</p>", "a b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestSanitizeHTML(t *testing.T) {
	t.Parallel()

	out := SanitizeHTML(`<h2>Title</h2><p onclick="x()">text <a href="javascript:alert(1)">bad</a> <a href="https://example.com">good</a></p><script>x</script>`)

	assert.Contains(t, out, "<h2>Title</h2>")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `rel="nofollow"`)
}
