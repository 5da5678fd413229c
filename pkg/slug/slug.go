package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option configures Make.
type Option func(*config)

type config struct {
	separator string
	maxLength int
	lowercase bool
}

// Separator sets the string placed between words. Defaults to "-".
func Separator(sep string) Option {
	return func(c *config) { c.separator = sep }
}

// MaxLength limits the slug to n runes. Zero means unlimited.
func MaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// Lowercase controls case folding. Defaults to true.
func Lowercase(on bool) Option {
	return func(c *config) { c.lowercase = on }
}

// letters without a canonical decomposition.
var folds = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"þ", "th", "Þ", "TH",
)

// Make converts s into a slug.
func Make(s string, opts ...Option) string {
	cfg := config{separator: "-", lowercase: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	s = fold(folds.Replace(s))
	if cfg.lowercase {
		s = strings.ToLower(s)
	}

	var b strings.Builder
	pending := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteString(cfg.separator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	out := b.String()
	if cfg.maxLength > 0 {
		if rs := []rune(out); len(rs) > cfg.maxLength {
			out = strings.TrimRight(string(rs[:cfg.maxLength]), cfg.separator)
		}
	}
	return out
}

// fold strips combining marks after canonical decomposition.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
