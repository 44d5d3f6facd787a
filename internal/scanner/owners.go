package scanner

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// OwnersName is the optional file at the scan root mapping path prefixes to
// owners, one `prefix owner` pair per line. Lines starting with # are
// comments.
const OwnersName = "OWNERS"

// OwnerMap resolves module paths to owners by longest matching prefix.
type OwnerMap struct {
	prefixes []string // sorted longest-first
	owners   map[string]string
}

// ParseOwners reads an OWNERS file.
func ParseOwners(r io.Reader) (*OwnerMap, error) {
	om := &OwnerMap{owners: make(map[string]string)}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		prefix := strings.Trim(fields[0], "/")
		if _, exists := om.owners[prefix]; !exists {
			om.prefixes = append(om.prefixes, prefix)
		}
		om.owners[prefix] = fields[1]
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.Slice(om.prefixes, func(i, j int) bool {
		return len(om.prefixes[i]) > len(om.prefixes[j])
	})
	return om, nil
}

// Lookup returns the owner for a module path, or "" when no prefix matches.
func (om *OwnerMap) Lookup(path string) string {
	if om == nil {
		return ""
	}
	for _, prefix := range om.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return om.owners[prefix]
		}
	}
	return ""
}
