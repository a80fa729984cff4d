package store

import (
	"fmt"
	"regexp"
	"strings"
)

const AliasLatest = "latest"

// Ref names an artifact version: [entity/][project/]name[:version]. Version
// is "v<N>" or an alias and defaults to "latest".
type Ref struct {
	Project string
	Name    string
	Version string
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func ValidName(s string) bool {
	return namePattern.MatchString(s) && s != "." && s != ".."
}

func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("%w: empty", ErrInvalidRef)
	}
	var r Ref
	path := s
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		path, r.Version = s[:i], s[i+1:]
	}
	parts := strings.Split(path, "/")
	if len(parts) > 3 {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	for _, p := range parts {
		if !ValidName(p) {
			return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
		}
	}
	r.Name = parts[len(parts)-1]
	if len(parts) > 1 {
		r.Project = parts[len(parts)-2]
	}
	if r.Version == "" {
		r.Version = AliasLatest
	}
	if !ValidName(r.Name) || !ValidName(r.Version) || (r.Project != "" && !ValidName(r.Project)) {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	return r, nil
}

func (r Ref) String() string {
	s := r.Name + ":" + r.Version
	if r.Project != "" {
		s = r.Project + "/" + s
	}
	return s
}

// VersionNumber returns N for "v<N>" and false for aliases.
func VersionNumber(v string) (int, bool) {
	if len(v) < 2 || v[0] != 'v' {
		return 0, false
	}
	n := 0
	for _, c := range v[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	return n, true
}
