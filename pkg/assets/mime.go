package assets

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// AllowedMimeTypes are accepted regardless of extension.
var AllowedMimeTypes = map[string]bool{
	"application/pdf":                   true,
	"application/postscript":            true,
	"application/vnd.adobe.illustrator": true,
	"application/vnd.sketch":            true,
	"image/gif":                         true,
	"image/jpeg":                        true,
	"image/png":                         true,
	"image/svg+xml":                     true,
	"image/webp":                        true,
	"video/mp4":                         true,
}

// AllowedExtensions are accepted regardless of MIME type.
var AllowedExtensions = map[string]bool{
	".ai":     true,
	".eps":    true,
	".gif":    true,
	".jpeg":   true,
	".jpg":    true,
	".mov":    true,
	".mp4":    true,
	".pdf":    true,
	".png":    true,
	".psd":    true,
	".sketch": true,
	".svg":    true,
	".webp":   true,
}

// extensionTypes pins the guess for the allowed extensions so it does not
// depend on the host's mime.types.
var extensionTypes = map[string]string{
	".ai":   "application/postscript",
	".eps":  "application/postscript",
	".gif":  "image/gif",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".psd":  "image/vnd.adobe.photoshop",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// resolveType picks the asset MIME type: the declared type when present,
// else a guess from the extension, else the sniffed content type.
func resolveType(filename, declared string, data []byte) string {
	if t := baseType(declared); t != "" {
		return t
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := baseType(mime.TypeByExtension(ext)); t != "" {
		return t
	}
	return baseType(mimetype.Detect(data).String())
}

// ServeType returns the content type to serve a stored file with, guessed
// from its name.
func ServeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// allowed reports whether either the type or the extension is allow-listed.
func allowed(filename, mimeType string) bool {
	return AllowedMimeTypes[mimeType] || AllowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// baseType lower-cases a media type and drops its parameters.
func baseType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

// File type filter values.
const (
	FileTypeImage    = "image"
	FileTypeVideo    = "video"
	FileTypeDocument = "document"
	FileTypeOther    = "other"
)
