package realtime

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Filter restricts a subscription to rows whose column equals a value. The
// wire form is "column=eq.value".
type Filter struct {
	Column string
	Value  string
}

// ParseFilter parses "column=eq.value". An empty string yields a nil filter.
func ParseFilter(s string) (*Filter, error) {
	if s == "" {
		return nil, nil
	}

	column, rest, found := strings.Cut(s, "=")
	if !found || column == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}

	value, found := strings.CutPrefix(rest, "eq.")
	if !found || value == "" {
		return nil, fmt.Errorf("%w: only eq is supported in %q", ErrInvalidFilter, s)
	}

	return &Filter{Column: column, Value: value}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Matches reports whether a change with the given column values passes the
// filter. A nil filter matches everything.
func (f *Filter) Matches(columns map[string]string) bool {
	if f == nil {
		return true
	}
	v, ok := columns[f.Column]
	return ok && v == f.Value
}
