package sqlguard

import "strings"

// The classifier works on a token stream, not raw text, so mutating verbs
// hidden inside string literals, comments, or quoted identifiers cannot
// fool it in either direction.

type tokenKind int

const (
	tkWord tokenKind = iota
	tkString
	tkNumber
	tkPunct
	tkSemicolon
)

type token struct {
	kind   tokenKind
	text   string
	upper  string
	quoted bool // quoted identifier, never a keyword
	depth  int  // parenthesis nesting at token start
	pos    int  // byte offset of token start
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scan tokenizes a single SQL statement. It is permissive: anything it
// does not recognize becomes a one-byte punct token.
func scan(input string) []token {
	var toks []token
	depth := 0
	i, n := 0, len(input)

	for i < n {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '-' && i+1 < n && input[i+1] == '-':
			for i < n && input[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && input[i+1] == '*':
			i += 2
			for i < n {
				if input[i] == '*' && i+1 < n && input[i+1] == '/' {
					i += 2
					break
				}
				i++
			}

		case c == '\'':
			start := i
			i++
			for i < n {
				if input[i] == '\'' {
					// '' escapes a quote inside the literal
					if i+1 < n && input[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			toks = append(toks, token{kind: tkString, text: input[start:i], depth: depth, pos: start})

		case c == '"' || c == '`':
			quote := c
			start := i
			i++
			for i < n && input[i] != quote {
				i++
			}
			if i < n {
				i++
			}
			text := strings.Trim(input[start:i], string(quote))
			toks = append(toks, token{
				kind: tkWord, text: text, upper: strings.ToUpper(text),
				quoted: true, depth: depth, pos: start,
			})

		case c == '[':
			start := i
			i++
			for i < n && input[i] != ']' {
				i++
			}
			if i < n {
				i++
			}
			text := strings.Trim(input[start:i], "[]")
			toks = append(toks, token{
				kind: tkWord, text: text, upper: strings.ToUpper(text),
				quoted: true, depth: depth, pos: start,
			})

		case c == '(':
			toks = append(toks, token{kind: tkPunct, text: "(", depth: depth, pos: i})
			depth++
			i++

		case c == ')':
			if depth > 0 {
				depth--
			}
			toks = append(toks, token{kind: tkPunct, text: ")", depth: depth, pos: i})
			i++

		case c == ';':
			toks = append(toks, token{kind: tkSemicolon, text: ";", depth: depth, pos: i})
			i++

		case isWordStart(c):
			start := i
			for i < n && isWordByte(input[i]) {
				i++
			}
			text := input[start:i]
			toks = append(toks, token{
				kind: tkWord, text: text, upper: strings.ToUpper(text),
				depth: depth, pos: start,
			})

		case isDigit(c):
			start := i
			for i < n && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tkNumber, text: input[start:i], depth: depth, pos: start})

		default:
			toks = append(toks, token{kind: tkPunct, text: string(c), depth: depth, pos: i})
			i++
		}
	}

	return toks
}
