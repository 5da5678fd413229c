package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template is a markdown body with frontmatter metadata.
type Template struct {
	Metadata map[string]any
	Body     string
}

var fence = []byte("---")

// ParseTemplate splits optional YAML frontmatter delimited by "---" lines
// from the markdown body.
func ParseTemplate(content []byte) (*Template, error) {
	if !bytes.HasPrefix(content, fence) {
		return &Template{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(content[len(fence):], "\r\n")
	end := bytes.Index(rest, fence)
	if end == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	meta := map[string]any{}
	if front := bytes.TrimSpace(rest[:end]); len(front) > 0 {
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	body := rest[end+len(fence):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	return &Template{Metadata: meta, Body: string(body)}, nil
}
