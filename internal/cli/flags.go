package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBracketList splits a comma-separated list, tolerating the
// bracketed form many shells and configs hand over: "[a, b]" and "a,b"
// both yield ["a" "b"]. Empty input yields nil.
func ParseBracketList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseSeeds parses a bracket list of integer seeds.
func ParseSeeds(s string) ([]int64, error) {
	parts := ParseBracketList(s)
	if len(parts) == 0 {
		return nil, nil
	}
	seeds := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seed %q is not an integer", p)
		}
		seeds[i] = v
	}
	return seeds, nil
}
