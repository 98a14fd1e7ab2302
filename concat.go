package jqgrid

import (
	"regexp"
	"strings"
)

// ConcatOptions configures a composite column: the identifiers feeding the
// template, the pattern itself and the separator used to join multiple
// resolved value groups (when an identifier fans out over a to-many
// relation).
type ConcatOptions struct {
	Identifiers []string
	Pattern     string
	Separator   string
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// EvaluatePattern renders a concat template against a sparse set of
// placeholder values. The pattern mixes literal text with `%sN`
// placeholders, parenthesized optional groups and `{...}` separator spans
// whose text survives only when a neighboring placeholder resolved.
// Unresolved placeholders disappear; optional groups whose placeholders
// all stayed unresolved collapse to nothing; a pattern with zero resolved
// placeholders yields the empty string. Pure function, deterministic.
func EvaluatePattern(pattern string, values map[int]string) string {
	resolved := make(map[int]string, len(values))
	for idx, v := range values {
		if v != "" {
			resolved[idx] = v
		}
	}

	text, resolvedCount, _ := evalPatternGroup(pattern, resolved)
	if resolvedCount == 0 {
		return ""
	}

	text = strings.NewReplacer("{", "", "}", "").Replace(text)

	return collapseWhitespace(text)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

const (
	tokenLiteral = iota
	tokenPlaceholder
	tokenBrace
	tokenGroup
)

type patternToken struct {
	kind     int
	text     string
	resolved bool
}

// evalPatternGroup evaluates one nesting level, recursing into
// parenthesized sub-groups first (innermost groups collapse before their
// parents are assembled).
func evalPatternGroup(s string, values map[int]string) (string, int, int) {
	tokens, resolvedCount, total := tokenizePattern(s, values)

	var b strings.Builder
	for i, tok := range tokens {
		switch tok.kind {
		case tokenLiteral:
			b.WriteString(tok.text)
		case tokenPlaceholder, tokenGroup:
			if tok.resolved {
				b.WriteString(tok.text)
			}
		case tokenBrace:
			if braceNeighborResolved(tokens, i) {
				b.WriteString(tok.text)
			}
		}
	}

	return b.String(), resolvedCount, total
}

func tokenizePattern(s string, values map[int]string) ([]patternToken, int, int) {
	var (
		tokens        []patternToken
		resolvedCount int
		total         int
	)

	i := 0
	literalStart := 0
	flushLiteral := func(end int) {
		if end > literalStart {
			tokens = append(tokens, patternToken{kind: tokenLiteral, text: s[literalStart:end]})
		}
	}

	for i < len(s) {
		switch {
		case s[i] == '(':
			end := matchingParen(s, i)
			if end < 0 {
				i++
				continue
			}
			flushLiteral(i)

			inner, innerResolved, innerTotal := evalPatternGroup(s[i+1:end], values)
			resolvedCount += innerResolved
			total += innerTotal

			tok := patternToken{kind: tokenGroup}
			if innerTotal == 0 || innerResolved > 0 {
				inner = collapseWhitespace(strings.NewReplacer("{", "", "}", "").Replace(inner))
				if inner != "" {
					tok.text = "(" + inner + ")"
				}
				tok.resolved = true
			}
			tokens = append(tokens, tok)

			i = end + 1
			literalStart = i

		case s[i] == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				i++
				continue
			}
			flushLiteral(i)

			tokens = append(tokens, patternToken{kind: tokenBrace, text: s[i+1 : i+end]})
			i += end + 1
			literalStart = i

		case strings.HasPrefix(s[i:], "%s") && i+2 < len(s) && isDigit(s[i+2]):
			flushLiteral(i)

			j := i + 2
			for j < len(s) && j < i+4 && isDigit(s[j]) {
				j++
			}
			idx := 0
			for _, c := range s[i+2 : j] {
				idx = idx*10 + int(c-'0')
			}

			total++
			tok := patternToken{kind: tokenPlaceholder}
			if v, ok := values[idx]; ok {
				tok.text = v
				tok.resolved = true
				resolvedCount++
			}
			tokens = append(tokens, tok)

			i = j
			literalStart = i

		default:
			i++
		}
	}
	flushLiteral(len(s))

	return tokens, resolvedCount, total
}

// braceNeighborResolved reports whether the placeholder or group nearest
// to the brace span on either side resolved to a value.
func braceNeighborResolved(tokens []patternToken, at int) bool {
	for i := at - 1; i >= 0; i-- {
		if tokens[i].kind == tokenPlaceholder || tokens[i].kind == tokenGroup {
			if tokens[i].resolved {
				return true
			}
			break
		}
	}
	for i := at + 1; i < len(tokens); i++ {
		if tokens[i].kind == tokenPlaceholder || tokens[i].kind == tokenGroup {
			return tokens[i].resolved
		}
	}
	return false
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
