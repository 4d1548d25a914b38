package imgdl

// ImageTarget is the resolved description of one download: a validated URL
// and the unique destination path derived from it. Constructed by Resolve,
// consumed by FetchAndSave.
type ImageTarget struct {
	URL       string // validated absolute http(s) URL
	Directory string // absolute output directory
	Name      string // sanitized filename stem, without extension
	Extension string // lower-case image extension, without leading dot

	// OriginalName and OriginalExtension are parsed from the URL path's
	// trailing suffix. Both are empty when the path has no file-like suffix.
	OriginalName      string
	OriginalExtension string

	// Path is Directory/Name.Extension, unique among files that existed in
	// Directory at resolution time.
	Path string
}

// supportedExtensions is the fixed allow-list of image extensions, keyed
// lower-case.
var supportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
	"svg":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
	"ico":  true,
	"avif": true,
}
