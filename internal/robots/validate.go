package robots

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// maxValidatableSize mirrors the fetcher's own cap: content beyond
// this is truncated before it ever reaches a crawl decision, so flagging it
// here lets an operator fix the file before that happens.
const maxValidatableSize = 500 * 1024

// RobotsValidationResult reports whether a candidate robots.txt body is
// well-formed, for the operator-facing validateRobotsTxt check.
// It never blocks a fetch; CachedRobot.Decide does not consult it.
type RobotsValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateRobotsTxt checks content for structural problems without
// mutating any cache or ruleSet. It is a standalone diagnostic, not part of
// the fetch-and-decide path.
func ValidateRobotsTxt(content string) RobotsValidationResult {
	result := RobotsValidationResult{Valid: true}

	if len(content) > maxValidatableSize {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"content is %d bytes, exceeds the %d byte limit applied at fetch time and will be truncated",
			len(content), maxValidatableSize))
	}

	sawAnyUserAgent := false
	sawRuleBeforeUserAgent := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing ':' separator: %q", lineNo, line))
			result.Valid = false
			continue
		}

		field := strings.ToLower(strings.TrimSpace(line[:colonIdx]))
		value := strings.TrimSpace(line[colonIdx+1:])

		switch field {
		case "user-agent":
			if value == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: user-agent with empty value", lineNo))
				result.Valid = false
			}
			sawAnyUserAgent = true

		case "allow", "disallow":
			if !sawAnyUserAgent {
				sawRuleBeforeUserAgent = true
			}
			if value != "" && !strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "*") {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"line %d: %s path %q does not start with '/' or '*'", lineNo, field, value))
			}

		case "crawl-delay":
			seconds, err := strconv.ParseFloat(value, 64)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: crawl-delay %q is not numeric", lineNo, value))
				result.Valid = false
			} else if seconds < 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: crawl-delay %q is negative", lineNo, value))
				result.Valid = false
			}

		case "sitemap":
			if value == "" {
				result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: sitemap with empty value", lineNo))
			}

		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: unrecognized field %q", lineNo, field))
		}
	}

	if sawRuleBeforeUserAgent {
		result.Warnings = append(result.Warnings, "allow/disallow rules appear before any user-agent line; they are treated as a global group")
	}

	return result
}
