package store

import "strings"

// rewritePlaceholders converts $N placeholders into SQLite's ?N form and
// counts the statements in query.
//
// SQLite treats $1 as a named parameter and numbers named parameters by first
// appearance, so "$2 ... $1" would bind in the wrong order. ?N binds to index N
// exactly. Quoted strings, quoted identifiers and comments are copied
// untouched, and so is a $ inside a bare identifier such as a$1. A statement
// is any non-blank text between semicolons.
func rewritePlaceholders(query string) (string, int) {
	var b strings.Builder
	b.Grow(len(query))

	statements := 0
	pending := false // non-blank text seen since the last ';'

	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := closeQuote(query, i, c)
			b.WriteString(query[i:end])
			pending = true
			i = end
		case c == '[':
			end := strings.IndexByte(query[i:], ']')
			if end < 0 {
				end = len(query)
			} else {
				end += i + 1
			}
			b.WriteString(query[i:end])
			pending = true
			i = end
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query)
			} else {
				end += i
			}
			b.WriteString(query[i:end])
			i = end
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = len(query)
			} else {
				end += i + 4
			}
			b.WriteString(query[i:end])
			i = end
		case c == '$' && i+1 < len(query) && isDigit(query[i+1]) && (i == 0 || !isIdentChar(query[i-1])):
			b.WriteByte('?')
			i++
			pending = true
		case c == ';':
			if pending {
				statements++
				pending = false
			}
			b.WriteByte(c)
			i++
		default:
			if !isSpace(c) {
				pending = true
			}
			b.WriteByte(c)
			i++
		}
	}
	if pending {
		statements++
	}
	return b.String(), statements
}

// closeQuote returns the index just past the quote that closes the one at
// start. A doubled quote character is an escaped quote.
func closeQuote(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isIdentChar reports whether c can continue a bare SQLite identifier.
// Bytes of multi-byte UTF-8 sequences count as identifier characters.
func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
