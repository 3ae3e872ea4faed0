// Package shell turns a bootstrap program into a single shell command line.
package shell

import (
	"fmt"
	"regexp"
	"strings"

	dasherr "github.com/tristendillon/dashc/core/errors"
)

// Strategy selects how the program text is quoted
type Strategy int

const (
	// SingleQuote wraps the text in '...' and splices each quote as '\''
	SingleQuote Strategy = iota
	// DoubleQuote wraps the text in "..." and escapes the characters the
	// shell would otherwise interpret. Whitespace, newlines included, is
	// kept literally, and '!' is spliced in single quotes to dodge history
	// expansion.
	DoubleQuote
)

func (s Strategy) String() string {
	switch s {
	case SingleQuote:
		return "single"
	case DoubleQuote:
		return "double"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "single" or "double"
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return SingleQuote, nil
	case "double":
		return DoubleQuote, nil
	default:
		return 0, fmt.Errorf("unknown quoting %q: must be 'single' or 'double'", s)
	}
}

var safeWordRegex = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// Quote renders text as one shell word that expands back to text
func Quote(text string, strategy Strategy) (string, error) {
	if strings.ContainsRune(text, 0) {
		return "", dasherr.New(dasherr.ShellRoundTrip, "", "text contains a NUL byte, which no shell argument can carry")
	}

	switch strategy {
	case SingleQuote:
		return "'" + strings.ReplaceAll(text, "'", `'\''`) + "'", nil
	case DoubleQuote:
		return doubleQuote(text), nil
	default:
		return "", fmt.Errorf("unknown quoting strategy %s", strategy)
	}
}

func doubleQuote(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/8 + 2)
	b.WriteByte('"')
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '!':
			b.WriteString(`"'!'"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// QuoteWord leaves plain words alone and single-quotes anything else
func QuoteWord(word string) (string, error) {
	if safeWordRegex.MatchString(word) {
		return word, nil
	}
	return Quote(word, SingleQuote)
}

// Assemble joins the invocation words and the quoted program text into one
// command line
func Assemble(invocation []string, text string, strategy Strategy) (string, error) {
	parts := make([]string, 0, len(invocation)+1)
	for _, word := range invocation {
		quoted, err := QuoteWord(word)
		if err != nil {
			return "", err
		}
		parts = append(parts, quoted)
	}

	quoted, err := Quote(text, strategy)
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, quoted), " "), nil
}
