package imgdl

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// invalidNameChars are characters illegal in filenames on at least one
// supported OS, plus control characters.
var invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// collisionSuffixRe matches a trailing " (n)" collision suffix.
var collisionSuffixRe = regexp.MustCompile(`^(.*) \((\d+)\)$`)

// Resolve validates rawURL and opts and derives a unique destination path.
// It fails with *ArgumentError for malformed input. The existence probe used
// for collision avoidance is advisory: FetchAndSave opens the destination
// exclusively and bumps the suffix again on conflict.
func (cfg *Config) Resolve(rawURL string, opts Options) (*ImageTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ArgumentError{Msg: "invalid URL " + strconv.Quote(rawURL), Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, argErrorf("invalid URL %q: not an absolute URL", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, argErrorf("invalid URL %q: unsupported protocol %q", rawURL, u.Scheme)
	}

	origName, origExt := splitURLFilename(u.Path)
	if origExt != "" && !supportedExtensions[origExt] {
		return nil, argErrorf("%q is not a valid image URL", rawURL)
	}

	dir, err := resolveDirectory(opts.Directory)
	if err != nil {
		return nil, err
	}

	name, err := resolveName(opts.Name, origName)
	if err != nil {
		return nil, err
	}

	ext, err := resolveExtension(opts.Extension, origExt)
	if err != nil {
		return nil, err
	}

	// Advisory collision avoidance against files that already exist.
	for fileExists(filepath.Join(dir, name+"."+ext)) {
		name = nextSuffix(name)
	}

	return &ImageTarget{
		URL:               u.String(),
		Directory:         dir,
		Name:              name,
		Extension:         ext,
		OriginalName:      origName,
		OriginalExtension: origExt,
		Path:              filepath.Join(dir, name+"."+ext),
	}, nil
}

// splitURLFilename derives the filename stem and lower-case extension from
// a URL path. Both are empty when the path has no file-like suffix.
func splitURLFilename(urlPath string) (name, ext string) {
	if urlPath == "" || urlPath == "/" {
		return "", ""
	}
	base := path.Base(urlPath)
	suffix := path.Ext(base)
	if suffix == "" || suffix == "." {
		return "", ""
	}
	return strings.TrimSuffix(base, suffix), strings.ToLower(strings.TrimPrefix(suffix, "."))
}

// resolveDirectory normalizes the output directory, defaulting to the
// current working directory. A final path component that ends in a known
// image extension indicates the caller passed a file path, not a directory.
func resolveDirectory(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return "", &ArgumentError{Msg: "invalid directory " + strconv.Quote(dir), Err: err}
	}
	baseExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(abs)), "."))
	if supportedExtensions[baseExt] {
		return "", argErrorf("directory %q looks like a file path", dir)
	}
	return abs, nil
}

// resolveName validates an explicit name or falls back to the URL-derived
// one, then to DefaultName. Explicit names must already be filesystem-safe
// and must not carry an image extension; URL-derived names are sanitized
// silently.
func resolveName(name, origName string) (string, error) {
	if name != "" {
		if sanitizeName(name) != name {
			return "", argErrorf("invalid name %q: contains reserved characters", name)
		}
		nameExt := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if supportedExtensions[nameExt] {
			return "", argErrorf("invalid name %q: must not include an image extension", name)
		}
		return name, nil
	}
	if s := sanitizeName(origName); s != "" {
		return s, nil
	}
	return DefaultName, nil
}

// resolveExtension validates an explicit extension (canonicalised to
// lower-case) or falls back to the URL-derived one, then to
// DefaultExtension.
func resolveExtension(ext, origExt string) (string, error) {
	if ext != "" {
		if strings.Contains(ext, ".") {
			return "", argErrorf("invalid extension %q: must not contain a dot", ext)
		}
		lower := strings.ToLower(ext)
		if !supportedExtensions[lower] {
			return "", argErrorf("unsupported image extension %q", ext)
		}
		return lower, nil
	}
	if origExt != "" {
		return origExt, nil
	}
	return DefaultExtension, nil
}

// sanitizeName strips reserved characters and surrounding whitespace/dots.
func sanitizeName(s string) string {
	s = invalidNameChars.ReplaceAllString(s, "")
	return strings.Trim(s, " .")
}

// nextSuffix increments a trailing " (n)" collision suffix, or appends
// " (1)" when none is present.
func nextSuffix(name string) string {
	if m := collisionSuffixRe.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return fmt.Sprintf("%s (%d)", m[1], n+1)
		}
	}
	return name + " (1)"
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
