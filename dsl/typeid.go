package dsl

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// TypeIdentifier computes a user type's on-wire identifier from its
// canonical structural digest: the type name followed by its fields in
// declaration order, each as "name:type" (or "name:type[]"/"name:type[N]"
// for arrays). The reference implementation XOR-folds raw bytes into a
// 16-byte buffer, which is not collision-resistant; per §9's open
// question this port adopts SHA-256 instead and truncates to the same
// 16-byte, 32-hex-character shape the reference produces, trading
// reference wire compatibility for actual collision resistance.
func TypeIdentifier(name string, fields []Field) string {
	var b strings.Builder
	b.WriteString(name)
	for _, f := range fields {
		b.WriteByte('\n')
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Type)
		if f.Array != nil {
			b.WriteByte('[')
			if f.Array.Length != nil {
				b.WriteString(strconv.Itoa(*f.Array.Length))
			}
			b.WriteByte(']')
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
