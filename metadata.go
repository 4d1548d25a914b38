package imgdl

import (
	"bytes"
	"image"
	"os"

	"github.com/bep/imagemeta"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageInfo describes a downloaded image file: pixel dimensions plus a few
// EXIF fields when present.
type ImageInfo struct {
	Format  string // decoder name, e.g. "jpeg"
	Width   int
	Height  int
	Created string // EXIF DateTimeOriginal
	Artist  string // EXIF Artist
}

// wantedTags lists the EXIF tags DescribeImage extracts.
var wantedTags = map[string]bool{
	"DateTimeOriginal": true,
	"Artist":           true,
}

// DescribeImage reads back the image at path and reports its dimensions and
// basic EXIF fields. Returns nil if the file cannot be read or decoded.
// Graceful degradation: never returns an error.
func DescribeImage(path string) *ImageInfo {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	info := &ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}

	// EXIF is best-effort; a decode failure still leaves the dimensions.
	_ = imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s, ok := ti.Value.(string)
			if !ok {
				return nil
			}
			switch ti.Tag {
			case "DateTimeOriginal":
				info.Created = s
			case "Artist":
				info.Artist = s
			}
			return nil
		},
	})

	return info
}
