package core

import "mime/multipart"

// Image upload directories, relative to the media root.
const (
	SchoolImagesDir    = "images/schools"
	PrincipalImagesDir = "images/principals"
)

// FileStore stores uploaded files and serves them under public URLs.
type FileStore interface {
	// SaveImage validates & stores the uploaded image under dir and returns its public URL.
	// Invalid uploads fail with a *ValidationError on field.
	SaveImage(field string, fh *multipart.FileHeader, dir string) (string, error)
	// Delete removes the file behind url. Placeholders & external URLs are left untouched.
	Delete(url string) error
}
