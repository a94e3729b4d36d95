package widget

import (
	"hash/crc32"
	"strconv"
)

// IDPrefix prefixes identifiers derived from an element's label.
const IDPrefix = "pg-trk-"

// ResolveID returns key when it is non-empty. Otherwise it derives the
// identifier from the label: prefix followed by the decimal CRC-32 (IEEE) of
// the label. The same label always yields the same identifier, so an element
// keeps its identity across render passes without any stored state.
// Collisions between labels are possible and accepted.
func ResolveID(key, label, prefix string) string {
	if key != "" {
		return key
	}
	sum := crc32.ChecksumIEEE([]byte(label))
	return prefix + strconv.FormatUint(uint64(sum), 10)
}
