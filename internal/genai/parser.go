package genai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	spaceRunRe   = regexp.MustCompile(`[ \t]{4,}`)
	newlineRunRe = regexp.MustCompile(`\n{4,}`)
	fenceRe      = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// ParseModelJSON extracts a JSON object from raw model output and unmarshals
// it into out. It strips code fences and leading prose, and when the response
// looks truncated (finishReason MAX_TOKENS, or a long body that fails to
// parse) it attempts a heuristic repair of the cut-off JSON. Returns false
// when no structured data could be recovered; callers must treat that as
// "no data", never as a fatal error.
func ParseModelJSON(raw, finishReason string, out any) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}

	cleaned := collapseWhitespace(raw)
	cleaned = extractCandidate(cleaned)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return true
	}

	if finishReason != FinishReasonMaxTokens && len(cleaned) <= 2000 {
		logParseFailure(raw)
		return false
	}

	repaired := repairTruncated(cleaned)
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		logParseFailure(raw)
		return false
	}
	return true
}

// collapseWhitespace caps whitespace runs at 3 characters. Guards against a
// known model failure mode that emits unbounded spaces or newlines instead of
// terminating.
func collapseWhitespace(s string) string {
	s = spaceRunRe.ReplaceAllString(s, "   ")
	return newlineRunRe.ReplaceAllString(s, "\n\n\n")
}

// extractCandidate isolates the JSON payload: the interior of a fenced code
// block when one is present, otherwise everything from the first brace. An
// unterminated fence (response truncated mid-block) falls through to the
// first-brace slice.
func extractCandidate(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "\n"); j >= 0 && j < 10 {
			s = s[j+1:] // drop the language token after the opening fence
		}
	}

	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		if i := strings.Index(s, "{"); i >= 0 {
			s = s[i:]
		}
	}
	return s
}

// repairTruncated closes what a token-limit cutoff left open: an unterminated
// string, a dangling comma, and any unclosed objects or arrays, in that
// order. Closers are appended in reverse (LIFO) nesting order.
func repairTruncated(s string) string {
	if countUnescapedQuotes(s)%2 == 1 {
		s += `"`
	}

	trimmed := strings.TrimRight(s, " \t\n")
	if strings.HasSuffix(trimmed, ",") {
		s = strings.TrimSuffix(trimmed, ",")
	}

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}

func countUnescapedQuotes(s string) int {
	n := 0
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			escaped = true
		case '"':
			n++
		}
	}
	return n
}

func logParseFailure(raw string) {
	prefix := raw
	if len(prefix) > 300 {
		prefix = prefix[:300]
	}
	log.Warn().Str("prefix", prefix).Msg("genai: failed to extract JSON from model response")
}
