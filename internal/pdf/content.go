package pdf

import (
	"bytes"
	"encoding/hex"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// paintedXObjects scans a decoded content stream and returns the operand of
// every Do operator in painting order. Strings, comments and inline image
// data are skipped so their bytes are never mistaken for operators.
func paintedXObjects(content []byte) []string {
	var names []string
	lastName := ""
	n := len(content)

	for i := 0; i < n; {
		c := content[i]
		switch {
		case isWhitespace(c):
			i++
		case c == '%':
			for i < n && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			i = skipLiteralString(content, i)
			lastName = ""
		case c == '<':
			if i+1 < n && content[i+1] == '<' {
				i += 2
				continue
			}
			for i < n && content[i] != '>' {
				i++
			}
			i++
			lastName = ""
		case c == '>' || c == '[' || c == ']' || c == '{' || c == '}' || c == ')':
			i++
		case c == '/':
			start := i + 1
			i = start
			for i < n && !isWhitespace(content[i]) && !isDelimiter(content[i]) {
				i++
			}
			lastName = decodeName(content[start:i])
		default:
			start := i
			for i < n && !isWhitespace(content[i]) && !isDelimiter(content[i]) {
				i++
			}
			tok := string(content[start:i])
			switch tok {
			case "Do":
				if lastName != "" {
					names = append(names, lastName)
				}
			case "BI":
				i = skipInlineImage(content, i)
			}
			lastName = ""
		}
	}
	return names
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipLiteralString returns the index after the balanced string starting at i.
func skipLiteralString(content []byte, i int) int {
	depth := 0
	for ; i < len(content); i++ {
		switch content[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// skipInlineImage moves past the ID ... EI section following a BI operator.
func skipInlineImage(content []byte, i int) int {
	id := bytes.Index(content[i:], []byte("ID"))
	if id < 0 {
		return len(content)
	}
	i += id + 2
	for j := i; j+1 < len(content); j++ {
		if content[j] != 'E' || content[j+1] != 'I' {
			continue
		}
		before := j == 0 || isWhitespace(content[j-1])
		after := j+2 >= len(content) || isWhitespace(content[j+2])
		if before && after {
			return j + 2
		}
	}
	return len(content)
}

// decodeName resolves #xx escapes in a name token. Malformed escapes keep
// the raw token.
func decodeName(raw []byte) string {
	name, err := types.DecodeName(string(raw))
	if err != nil {
		return string(raw)
	}
	return name
}

// decodeHex decodes a hex string body, ignoring whitespace. An odd trailing
// digit is padded with zero.
func decodeHex(s string) ([]byte, error) {
	digits := make([]byte, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		if !isWhitespace(s[i]) {
			digits = append(digits, s[i])
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, err
	}
	return out, nil
}
