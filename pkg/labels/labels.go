package labels

import (
	"strings"
)

// Classifier labels and database disease names disagree on formatting:
// the model emits names like "Late_blight" while curated records may use
// "Late blight" or "late blight". Matching is therefore done over a small
// set of normalized variants rather than a single exact string.

// Identifier converts a disease label to a normalized identifier:
// lowercase, alphanumeric runs joined by single underscores.
func Identifier(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	lastUnderscore := false

	for _, ch := range trimmed {
		isAlphaNum := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
		if isAlphaNum {
			b.WriteRune(ch)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}

// Display converts a raw classifier label to a human-readable name:
// underscores become spaces and runs of whitespace collapse.
func Display(label string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(label, "_", " ")), " ")
}

// MatchVariants returns the candidate strings to try when looking up a
// disease by label, most specific first: the label as given, the
// underscore/space swapped forms, and the whitespace-collapsed form.
// Duplicates are removed while preserving order.
func MatchVariants(label string) []string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return nil
	}

	candidates := []string{
		trimmed,
		strings.ReplaceAll(trimmed, "_", " "),
		strings.ReplaceAll(trimmed, " ", "_"),
		Display(trimmed),
	}

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
