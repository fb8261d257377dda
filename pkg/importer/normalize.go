package importer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	byteOrderMark = "\uFEFF"
	// bomMojibake is a UTF-8 byte order mark decoded as Latin-1 and re-encoded.
	bomMojibake = "\u00ef\u00bb\u00bf"
)

// NormalizeColumnName removes byte order marks (also in their mojibake form),
// applies Unicode NFC and trims surrounding whitespace, so that the same header
// exported by different tools maps to the same column.
func NormalizeColumnName(name string) string {
	name = strings.ReplaceAll(name, byteOrderMark, "")
	for strings.HasPrefix(name, bomMojibake) {
		name = strings.TrimPrefix(name, bomMojibake)
	}
	return strings.TrimSpace(norm.NFC.String(name))
}
