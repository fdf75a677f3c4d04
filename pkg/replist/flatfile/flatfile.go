// Package flatfile is a deliberately thin concrete replist.List: one
// procedure name per line, blank lines and "#"-comments ignored.
package flatfile

import (
	"bufio"
	"io"
	"strings"

	"github.com/oisee/x86trans/pkg/replist"
)

// Parse reads r and returns the skip-set it names.
func Parse(r io.Reader) (replist.Set, error) {
	sc := bufio.NewScanner(r)
	var names []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return replist.NewSet(names), sc.Err()
}
