package imgdl

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mustArgumentError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected *ArgumentError, got %T: %v", err, err)
	}
}

func TestResolve_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}

	target, err := cfg.Resolve("https://example.com/photos/cat.png", Options{Directory: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Name != "cat" {
		t.Errorf("Name = %q, want cat", target.Name)
	}
	if target.Extension != "png" {
		t.Errorf("Extension = %q, want png", target.Extension)
	}
	if target.OriginalName != "cat" || target.OriginalExtension != "png" {
		t.Errorf("original name/ext = %q/%q, want cat/png", target.OriginalName, target.OriginalExtension)
	}
	if want := filepath.Join(dir, "cat.png"); target.Path != want {
		t.Errorf("Path = %q, want %q", target.Path, want)
	}
}

func TestResolve_FallbacksWithoutURLSuffix(t *testing.T) {
	cfg := &Config{}
	target, err := cfg.Resolve("https://example.com/gallery", Options{Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Name != DefaultName {
		t.Errorf("Name = %q, want %q", target.Name, DefaultName)
	}
	if target.Extension != DefaultExtension {
		t.Errorf("Extension = %q, want %q", target.Extension, DefaultExtension)
	}
	if target.OriginalName != "" || target.OriginalExtension != "" {
		t.Errorf("original name/ext = %q/%q, want empty", target.OriginalName, target.OriginalExtension)
	}
}

func TestResolve_Validation(t *testing.T) {
	cfg := &Config{}
	dir := t.TempDir()

	cases := []struct {
		name string
		url  string
		opts Options
	}{
		{"not a URL", "not-a-url", Options{}},
		{"bad scheme", "ftp://example.com/a.jpg", Options{}},
		{"non-image URL", "https://example.com/report.pdf", Options{}},
		{"name with separator", "https://example.com/a.jpg", Options{Name: "a/b"}},
		{"name with reserved char", "https://example.com/a.jpg", Options{Name: "a?b"}},
		{"name carrying extension", "https://example.com/a.jpg", Options{Name: "cat.png"}},
		{"extension with dot", "https://example.com/a.jpg", Options{Extension: ".png"}},
		{"non-image extension", "https://example.com/a.jpg", Options{Extension: "txt"}},
		{"directory looks like file", "https://example.com/a.jpg", Options{Directory: filepath.Join(dir, "images", "file.jpg")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cfg.Resolve(tc.url, tc.opts)
			mustArgumentError(t, err)
		})
	}
}

func TestResolve_ExtensionLowercased(t *testing.T) {
	cfg := &Config{}
	target, err := cfg.Resolve("https://example.com/a.jpg", Options{Directory: t.TempDir(), Extension: "PNG"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Extension != "png" {
		t.Errorf("Extension = %q, want png", target.Extension)
	}
}

func TestResolve_CollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	touch(t, filepath.Join(dir, "image.jpg"))

	target, err := cfg.Resolve("https://example.com/image.jpg", Options{Directory: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Name != "image (1)" {
		t.Errorf("Name = %q, want \"image (1)\"", target.Name)
	}

	touch(t, filepath.Join(dir, "image (1).jpg"))
	target, err = cfg.Resolve("https://example.com/image.jpg", Options{Directory: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Name != "image (2)" {
		t.Errorf("Name = %q, want \"image (2)\"", target.Name)
	}
}

func TestResolve_CollisionIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	touch(t, filepath.Join(dir, "image.jpg"))

	target, err := cfg.Resolve("https://example.com/image.png", Options{Directory: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Name != "image" {
		t.Errorf("Name = %q, want image (different extensions must not collide)", target.Name)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}

	first, err := cfg.Resolve("https://example.com/pic.webp", Options{Directory: dir, Name: "wall"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cfg.Resolve("https://example.com/pic.webp", Options{Directory: dir, Name: "wall"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution not idempotent:\n first = %+v\nsecond = %+v", first, second)
	}
}

func TestNextSuffix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"image", "image (1)"},
		{"image (1)", "image (2)"},
		{"image (9)", "image (10)"},
		{"shot (a)", "shot (a) (1)"},
	}
	for _, tc := range cases {
		if got := nextSuffix(tc.in); got != tc.want {
			t.Errorf("nextSuffix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
