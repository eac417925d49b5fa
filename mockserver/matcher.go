package mockserver

import (
	"fmt"
	"regexp"
	"strings"
)

// pathMatcher matches request paths against one OpenAPI path template.
// Templates like "/users/{id}" are compiled to regex patterns; a path
// parameter matches exactly one path segment.
type pathMatcher struct {
	// template is the original path template (e.g. "/users/{id}").
	template string

	// regex is the compiled pattern for matching.
	regex *regexp.Regexp

	// specificity orders matchers: literal characters count up, parameters
	// count down, so exact paths win over templated ones.
	specificity int
}

// newPathMatcher compiles a path template. It returns an error for malformed
// templates (unclosed or empty braces).
func newPathMatcher(template string) (*pathMatcher, error) {
	if template == "" {
		return nil, fmt.Errorf("path template cannot be empty")
	}

	var regexBuf strings.Builder
	regexBuf.WriteString("^")

	specificity := 0
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := strings.Index(template[i:], "}")
			if end == -1 {
				return nil, fmt.Errorf("unclosed path parameter at position %d in template %q", i, template)
			}
			if template[i+1 : i+end] == "" {
				return nil, fmt.Errorf("empty path parameter at position %d in template %q", i, template)
			}
			// A parameter matches any single path segment, per RFC 3986
			// segment separation.
			regexBuf.WriteString("([^/]+)")
			i += end + 1
			specificity--
		} else {
			c := template[i]
			if strings.ContainsRune(`\.+*?()|[]{}^$`, rune(c)) {
				regexBuf.WriteByte('\\')
			}
			regexBuf.WriteByte(c)
			i++
			if c != '/' {
				specificity++
			}
		}
	}
	regexBuf.WriteString("$")

	regex, err := regexp.Compile(regexBuf.String())
	if err != nil {
		return nil, fmt.Errorf("compile path template %q: %w", template, err)
	}
	return &pathMatcher{template: template, regex: regex, specificity: specificity}, nil
}

// matches reports whether the request path matches the template.
func (m *pathMatcher) matches(path string) bool {
	return m.regex.MatchString(path)
}
