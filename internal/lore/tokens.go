package lore

import (
	"regexp"
	"strings"
)

// tokenPattern matches [[Label|tagId]]. Tokens without a "|" never match.
// Labels may hold single brackets but never "]]"; the id is the text after
// the last "|".
var tokenPattern = regexp.MustCompile(`\[\[((?:[^\]]|\][^\]])*?\]?)\|([^\[\]|]+)\]\]`)

// Token is one inline reference parsed from description text.
type Token struct {
	Label string
	TagID string
}

// ParseTokens returns every well-formed token in text, in order of appearance.
func ParseTokens(text string) []Token {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		id := strings.TrimSpace(m[2])
		if id == "" {
			continue
		}
		tokens = append(tokens, Token{Label: m[1], TagID: id})
	}
	return tokens
}

// ExtractTagIDs returns the distinct tag ids referenced by text.
func ExtractTagIDs(text string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, t := range ParseTokens(text) {
		ids[t.TagID] = struct{}{}
	}
	return ids
}

// ReferencesTag reports whether text still carries a token ending in "|tagID]".
func ReferencesTag(text, tagID string) bool {
	return strings.Contains(text, "|"+tagID+"]")
}

// FormatToken renders a reference token.
func FormatToken(label, tagID string) string {
	label = strings.NewReplacer("[", "", "]", "", "|", "").Replace(label)
	return "[[" + label + "|" + tagID + "]]"
}

// RewriteTagIDs replaces tag ids inside tokens using mapping. Ids absent from
// mapping and text outside tokens are left untouched.
func RewriteTagIDs(text string, mapping map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		newID, ok := mapping[strings.TrimSpace(m[2])]
		if !ok {
			return tok
		}
		return "[[" + m[1] + "|" + newID + "]]"
	})
}
