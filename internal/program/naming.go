package program

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ExportName derives the default export name of a class: UpperCamel
// becomes lower_snake, with acronyms kept together (HTTPServer ->
// http_server). The result is NFC-normalised.
func ExportName(className string) string {
	runes := []rune(norm.NFC.String(className))
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
