// Package mask builds the bcl2fastq --use-bases-mask argument from the read
// structure of a run.
package mask

import (
	"strconv"
	"strings"

	"github.com/seahurt/bcl2fq-local/internal/model"
)

// Tokens returns one token per read: y<cycles-1>n for a non-indexed read
// and i<cycles-1>n for an index read. The last cycle of every read is
// masked out. Reads with any other IsIndexedRead value are skipped.
func Tokens(reads []model.ReadDescriptor) []string {
	tokens := make([]string, 0, len(reads))
	for _, r := range reads {
		var kind string
		switch r.Indexed {
		case model.IndexedNo:
			kind = "y"
		case model.IndexedYes:
			kind = "i"
		default:
			continue
		}
		tokens = append(tokens, kind+strconv.Itoa(r.Cycles-1)+"n")
	}
	return tokens
}

// Generate returns the bases mask, tokens joined by a comma.
func Generate(reads []model.ReadDescriptor) string {
	return strings.Join(Tokens(reads), ",")
}
