package keyword

import (
	"strings"
	"unicode"
)

// TokenBudget caps the summed token estimate of the boost-term list. The
// remote service rejects oversized keyword parameters, so the list is
// trimmed client-side before the connection URL is built.
const TokenBudget = 300

// Entry is a single boost term with its estimated token cost.
type Entry struct {
	Text   string
	Tokens int
}

// Build assembles the deduplicated, budget-limited boost-term list sent at
// connection time. User-configured terms come first and bypass the
// dictionary filter; context-derived terms are kept only when at least one
// sub-word part is not plain English (the service already knows English —
// boosting ordinary words just hurts accuracy). Insertion order decides
// priority once the budget fills up.
func Build(settings, contextTerms []string) []Entry {
	seen := make(map[string]bool)
	var out []Entry
	used := 0
	full := false

	add := func(term string, filtered bool) {
		if full {
			return
		}
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		key := strings.ToLower(term)
		if seen[key] {
			return
		}
		seen[key] = true

		parts := splitParts(term)
		if filtered && allEnglish(parts) {
			return
		}

		tokens := len(parts)
		if tokens < 1 {
			tokens = 1
		}
		if used+tokens > TokenBudget {
			full = true
			return
		}
		used += tokens
		out = append(out, Entry{Text: term, Tokens: tokens})
	}

	for _, term := range settings {
		add(term, false)
	}
	for _, term := range contextTerms {
		add(term, true)
	}

	return out
}

// splitParts breaks a term into sub-word parts on separator characters and
// camel-case boundaries. "userID_cache" -> ["user", "ID", "cache"].
func splitParts(term string) []string {
	var parts []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(term)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return parts
}

func allEnglish(parts []string) bool {
	if len(parts) == 0 {
		return true
	}
	for _, p := range parts {
		if !isEnglishWord(p) {
			return false
		}
	}
	return true
}
