package dictionary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "github.com/annotext/annotation-platform/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "places.txt", "the bronx\nbronx\nnew york\n")

	reg := NewRegistry()
	src := FileSource{Dictionary: "places", Path: filepath.Join(dir, "places.txt")}
	count, err := src.Load(context.Background(), reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	m, err := reg.Matcher("places")
	if err != nil {
		t.Fatalf("Matcher: %v", err)
	}
	if got := m.Match("I live in the Bronx"); len(got) != 2 {
		t.Errorf("Match = %v, want 2 overlapping matches", got)
	}
}

func TestFileSourceMissing(t *testing.T) {
	reg := NewRegistry()
	src := FileSource{Dictionary: "nope", Path: filepath.Join(t.TempDir(), "missing.txt")}
	_, err := src.Load(context.Background(), reg)
	if !errors.Is(err, apperrors.ErrDictionaryNotFound) {
		t.Errorf("err = %v, want ErrDictionaryNotFound", err)
	}
}

func TestDirSourceLoadsEachFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "places.txt", "bronx\nnew york\n")
	writeFile(t, dir, "people.txt", "patrice lopez\n")
	writeFile(t, dir, "ignored.csv", "not,a,dictionary\n")

	reg := NewRegistry()
	count, err := DirSource{Dir: dir}.Load(context.Background(), reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if got, want := reg.Names(), []string{"people", "places"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
	if got := reg.TermCounts()["places"]; got != 2 {
		t.Errorf("places terms = %d, want 2", got)
	}
}

func TestDirSourceMissingDir(t *testing.T) {
	reg := NewRegistry()
	_, err := DirSource{Dir: filepath.Join(t.TempDir(), "absent")}.Load(context.Background(), reg)
	if !errors.Is(err, apperrors.ErrDictionaryNotFound) {
		t.Errorf("err = %v, want ErrDictionaryNotFound", err)
	}
}

func TestRegistryUnknownDictionary(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Matcher("absent")
	if !errors.Is(err, apperrors.ErrDictionaryUnknown) {
		t.Errorf("err = %v, want ErrDictionaryUnknown", err)
	}
}
