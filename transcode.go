package imgdl

import (
	"fmt"
	"io"

	"github.com/disintegration/imaging"

	// Register webp so image.Decode (used by imaging) can read it.
	_ "golang.org/x/image/webp"
)

// encodableExtensions are the output formats imaging can encode. Requests
// for anything else (webp, svg, ico, avif) write the response bytes
// verbatim.
var encodableExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"tif":  true,
	"tiff": true,
	"bmp":  true,
}

// decodableExtensions are the source formats the registered decoders can
// read.
var decodableExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"tif":  true,
	"tiff": true,
	"bmp":  true,
}

// shouldTranscode reports whether the requested extension asks for a
// different image format than the URL's original extension, and whether
// that conversion is possible with the registered codecs.
func shouldTranscode(target *ImageTarget) bool {
	src := target.OriginalExtension
	if src == "" {
		return false
	}
	if formatFamily(src) == formatFamily(target.Extension) {
		return false
	}
	return decodableExtensions[src] && encodableExtensions[target.Extension]
}

// formatFamily folds alias extensions onto one canonical format name.
func formatFamily(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	default:
		return ext
	}
}

// transcode decodes the image from r and re-encodes it into w in the format
// named by ext.
func transcode(w io.Writer, r io.Reader, ext string) error {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("transcode: decode: %w", err)
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return fmt.Errorf("transcode: %w", err)
	}
	if err := imaging.Encode(w, img, format); err != nil {
		return fmt.Errorf("transcode: encode %s: %w", ext, err)
	}
	return nil
}
