package parse

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var unescapes = map[rune]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'b':  '\b',
	'f':  '\f',
}

// unquoteString takes a string literal including its surrounding single or
// double quotes and returns the unquoted string, along with any error
// encountered.
func unquoteString(s string) (string, error) {
	n := len(s)
	if n < 2 {
		return "", errors.New("too short a string")
	}

	var q = s[0]
	if (q != '\'' && q != '"') || s[n-1] != q {
		return "", errors.New("string not surrounded by quotes")
	}

	s = s[1 : n-1]
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}

	var escaping = false
	var result = make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if escaping {
			if r == 'u' {
				if i+4 > len(s) {
					return "", errors.New("error scanning unicode escape, expect \\uNNNN")
				}
				num, err := strconv.ParseInt(s[i:i+4], 16, 0)
				if err != nil {
					return "", err
				}
				r = rune(num)
				i += 4
			} else {
				replacement, ok := unescapes[r]
				if !ok {
					return "", errors.New("unrecognized escape code: \\" + string(r))
				}
				r = replacement
			}
			result = append(result, r)
			escaping = false
			continue
		}

		if r == '\\' {
			escaping = true
			continue
		}
		result = append(result, r)
	}
	if escaping {
		return "", errors.New("unterminated escape sequence")
	}
	return string(result), nil
}
