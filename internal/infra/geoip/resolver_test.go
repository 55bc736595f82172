package geoip

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenEmptyPath(t *testing.T) {
	r, err := Open("  ")
	if err != nil || r != nil {
		t.Fatalf("Open(empty) = (%v, %v), want (nil, nil)", r, err)
	}
	if _, err := r.Lookup("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil resolver Lookup error = %v, want ErrUnavailable", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("nil resolver Close error = %v", err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatal("expected error opening missing database")
	}
}
