package robots

import (
	"regexp"
	"strings"
	"sync"
)

// matches reports whether path satisfies this rule's pattern. Patterns use
// robots.txt wildcard syntax: "*" matches any run of characters, a trailing
// "$" anchors the match to the end of the path.
func (p pathRule) matches(path string) bool {
	return p.pattern().MatchString(path)
}

// specificity is the tie-break weight used when multiple rules match the
// same path: the longer declared pattern wins.
func (p pathRule) specificity() int {
	return len(p.prefix)
}

var (
	patternCacheMu sync.Mutex
	patternCache   = map[string]*regexp.Regexp{}
)

func (p pathRule) pattern() *regexp.Regexp {
	patternCacheMu.Lock()
	defer patternCacheMu.Unlock()

	if re, ok := patternCache[p.prefix]; ok {
		return re
	}
	re := compilePathPattern(p.prefix)
	patternCache[p.prefix] = re
	return re
}

// compilePathPattern turns a robots.txt path pattern into an anchored regexp.
func compilePathPattern(raw string) *regexp.Regexp {
	anchorEnd := strings.HasSuffix(raw, "$")
	body := strings.TrimSuffix(raw, "$")

	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range body {
		if r == '*' {
			sb.WriteString(".*")
			continue
		}
		sb.WriteString(regexp.QuoteMeta(string(r)))
	}
	if anchorEnd {
		sb.WriteString("$")
	}

	re, err := regexp.Compile(sb.String())
	if err != nil {
		// A pattern that fails to compile can never match; treat it as inert
		// rather than propagating a parse error out of a Decide call.
		return regexp.MustCompile(`$^`)
	}
	return re
}
