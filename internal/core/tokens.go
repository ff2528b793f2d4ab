package core

import (
	"regexp"
	"strconv"
	"strings"
)

// The completion and evaluation services embed structured values in their
// natural-language output as bracket tokens.  All parsing of that implicit
// wire format lives in this file; nothing else in the system inspects raw
// service text.

var (
	statusTokenRe   = regexp.MustCompile(`\[Status:\s*(\d+)\]`)
	scoreTokenRe    = regexp.MustCompile(`\[Score:\s*(\d+)\/10\]`)
	attitudeTokenRe = regexp.MustCompile(`\[Attitude:\s*([^\]]+)\]`)
)

// ExtractStatus finds the first "[Status: N]" token in s.  Tokens outside
// the 1-5 attitude scale are treated as absent.
func ExtractStatus(s string) (int, bool) {
	m := statusTokenRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

// StripStatus removes every status token from s and trims surrounding
// whitespace.  Stripping an already-clean string returns it unchanged.
func StripStatus(s string) string {
	return strings.TrimSpace(statusTokenRe.ReplaceAllString(s, ""))
}

// ExtractScore finds the "[Score: N/10]" token in s and returns the score
// clamped to [0,10].  A missing or unparseable token yields the neutral 5,
// so the result is total over arbitrary input.
func ExtractScore(s string) int {
	m := scoreTokenRe.FindStringSubmatch(s)
	if m == nil {
		return 5
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 5
	}
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}

// ExtractAttitude finds the optional "[Attitude: text]" token in s.
func ExtractAttitude(s string) string {
	m := attitudeTokenRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractLabelledLine returns the remainder of the first line in s starting
// with the given label (case-insensitive), e.g. "Styrker:" or "Fokus:".
func extractLabelledLine(s, label string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= len(label) && strings.EqualFold(line[:len(label)], label) {
			return strings.TrimSpace(line[len(label):])
		}
	}
	return ""
}
