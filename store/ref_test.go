package store

import (
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		in   string
		want Ref
	}{
		{"sample.csv", Ref{Name: "sample.csv", Version: "latest"}},
		{"sample.csv:latest", Ref{Name: "sample.csv", Version: "latest"}},
		{"sample.csv:v3", Ref{Name: "sample.csv", Version: "v3"}},
		{"nyc_airbnb/sample.csv:v0", Ref{Project: "nyc_airbnb", Name: "sample.csv", Version: "v0"}},
		{"team/nyc_airbnb/clean_sample.csv:reference", Ref{Project: "nyc_airbnb", Name: "clean_sample.csv", Version: "reference"}},
	}
	for _, tc := range cases {
		got, err := ParseRef(tc.in)
		if err != nil {
			t.Fatalf("ParseRef(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRef(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseRef_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "../etc:v1", "a/b/c/d:v1", "name:../x", ":v1", "a//b"} {
		if _, err := ParseRef(in); !errors.Is(err, ErrInvalidRef) {
			t.Fatalf("ParseRef(%q): want ErrInvalidRef, got %v", in, err)
		}
	}
}

func TestRefString(t *testing.T) {
	r := Ref{Project: "p", Name: "n", Version: "v2"}
	if r.String() != "p/n:v2" {
		t.Fatalf("String() = %q", r.String())
	}
}

func TestVersionNumber(t *testing.T) {
	if n, ok := VersionNumber("v12"); !ok || n != 12 {
		t.Fatalf("v12 -> %d %v", n, ok)
	}
	for _, s := range []string{"latest", "v", "vx", "12", ""} {
		if _, ok := VersionNumber(s); ok {
			t.Fatalf("%q should not be a version number", s)
		}
	}
}
