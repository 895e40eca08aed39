package cache

import (
	"fmt"
	"strings"
)

// Key joins prefix and parts with ':'. Parts are upper-cased so AAPL and
// aapl share an entry.
func Key(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(strings.ToUpper(fmt.Sprint(p)))
	}
	return b.String()
}
