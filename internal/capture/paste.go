package capture

import (
	"net/url"
	"strings"
)

// ParseDropped extracts file paths from text a terminal inserts when files
// are dragged onto it. Terminals either quote each path, escape spaces with
// backslashes, or send file:// URIs one per line.
func ParseDropped(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		paths   []string
		current strings.Builder
		quote   rune
		escaped bool
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		paths = append(paths, fromURI(current.String()))
		current.Reset()
	}

	for _, r := range text {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return paths
}

// LooksLikeDrop reports whether text appears to be a pasted file path
// rather than typed chat input
func LooksLikeDrop(text string) bool {
	t := strings.TrimLeft(strings.TrimSpace(text), `'"`)
	return strings.HasPrefix(t, "/") || strings.HasPrefix(t, "~/") || strings.HasPrefix(t, "file://")
}

func fromURI(s string) string {
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.Path == "" {
		return s
	}
	return u.Path
}
