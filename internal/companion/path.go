package companion

import (
	"fmt"
	"strconv"
	"strings"
)

type stepKind int

const (
	stepAttr stepKind = iota
	stepKey
	stepIndex
)

// step is one access in a path: attribute for dotted syntax, key or index
// for bracket syntax.
type step struct {
	kind  stepKind
	name  string
	index int
}

func (s step) String() string {
	switch s.kind {
	case stepKey:
		return fmt.Sprintf("[%q]", s.name)
	case stepIndex:
		return fmt.Sprintf("[%d]", s.index)
	default:
		return s.name
	}
}

// parsePath splits a dotted/bracketed path into ordered access steps.
// The first step is always an attribute step (the root name).
func parsePath(path string) ([]step, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	var steps []step
	i := 0
	wantName := true
	for i < len(path) {
		switch {
		case path[i] == '.':
			if wantName || i == len(path)-1 {
				return nil, badPath(path, i)
			}
			i++
			wantName = true
		case path[i] == '[':
			if wantName {
				return nil, badPath(path, i)
			}
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, badPath(path, i)
			}
			inner := path[i+1 : i+end]
			st, err := parseBracket(inner)
			if err != nil {
				return nil, badPath(path, i)
			}
			steps = append(steps, st)
			i += end + 1
		default:
			if !wantName {
				return nil, badPath(path, i)
			}
			j := i
			for j < len(path) && isNameByte(path[j]) {
				j++
			}
			if j == i {
				return nil, badPath(path, i)
			}
			steps = append(steps, step{kind: stepAttr, name: path[i:j]})
			i = j
			wantName = false
		}
	}
	if wantName {
		return nil, badPath(path, len(path))
	}
	return steps, nil
}

func parseBracket(inner string) (step, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return step{}, fmt.Errorf("empty brackets")
	}
	if len(inner) >= 2 {
		q := inner[0]
		if (q == '"' || q == '\'') && inner[len(inner)-1] == q {
			return step{kind: stepKey, name: inner[1 : len(inner)-1]}, nil
		}
	}
	idx, err := strconv.Atoi(inner)
	if err != nil {
		return step{}, err
	}
	return step{kind: stepIndex, index: idx}, nil
}

func badPath(path string, pos int) error {
	return fmt.Errorf("%w: malformed path %q at offset %d", ErrNotFound, path, pos)
}

func isNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// isReference reports whether a string argument is an argument reference
// marker: a '$' prefix followed by a path that parses cleanly. Strings with
// a '$' prefix that do not form a path stay literal, matching the narrow
// marker grammar rather than swallowing arbitrary dollar strings.
func isReference(s string) (string, bool) {
	if !strings.HasPrefix(s, "$") {
		return "", false
	}
	rest := s[1:]
	if _, err := parsePath(rest); err != nil {
		return "", false
	}
	return rest, true
}
