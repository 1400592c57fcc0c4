// Package mediasvc stores uploaded images on the local filesystem.
package mediasvc

import (
	"fmt"
	"image/gif"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
)

var (
	allowedExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

	errNoFile      = errors.New("no file selected")
	errInvalidType = errors.New("file type not allowed; use png, jpg, jpeg or gif")
	errTooLarge    = errors.New("file is too large")
	errNotAnImage  = errors.New("file is not a valid image")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
)

type LocalStore struct {
	root         string
	urlPrefix    string
	maxSize      int64
	maxDimension int
	placeholder  string
	now          func() time.Time
}

var _ core.FileStore = (*LocalStore)(nil)

func NewLocalStore(conf *core.Config) *LocalStore {
	return &LocalStore{
		root:         conf.Media.Root,
		urlPrefix:    conf.Media.URLPrefix,
		maxSize:      conf.Media.MaxUploadSize,
		maxDimension: conf.Media.MaxImageDimension,
		placeholder:  conf.Media.DefaultSchoolImage,
		now:          time.Now,
	}
}

// SanitizeFilename keeps the base name of fname with only ASCII letters, digits, '_', '.' and '-'.
func SanitizeFilename(fname string) string {
	fname = filepath.Base(strings.ReplaceAll(fname, `\`, "/"))
	fname = strings.Join(strings.Fields(fname), "_")
	fname = unsafeChars.ReplaceAllString(fname, "")
	return strings.Trim(fname, "._")
}

func (s *LocalStore) uniqueName(fname string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s_%s_%s", s.now().UTC().Format("20060102150405"), id[:8], fname)
}

func invalid(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

func (s *LocalStore) SaveImage(field string, fh *multipart.FileHeader, dir string) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", invalid(field, errNoFile)
	}
	fname := SanitizeFilename(fh.Filename)
	ext := strings.ToLower(filepath.Ext(fname))
	if fname == "" || !allowedExts[ext] {
		return "", invalid(field, errInvalidType)
	}
	if s.maxSize > 0 && fh.Size > s.maxSize {
		return "", invalid(field, errTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer func() { _ = src.Close() }()

	if err = os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(dir)), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}
	name := s.uniqueName(fname)
	dst := filepath.Join(s.root, filepath.FromSlash(dir), name)

	if ext == ".gif" {
		// animations would be lost by re-encoding
		err = s.saveGIF(field, dst, src)
	} else {
		err = s.saveResized(field, dst, src)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return path.Join(s.urlPrefix, dir, name), nil
}

// saveGIF checks that src holds a GIF, then copies it as is.
func (s *LocalStore) saveGIF(field, dst string, src io.ReadSeeker) error {
	if _, err := gif.DecodeConfig(src); err != nil {
		return invalid(field, errNotAnImage)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "rewinding upload")
	}
	return s.copyFile(dst, src)
}

func (s *LocalStore) copyFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(out, src); err != nil {
		_ = out.Close()
		return errors.Wrap(err, "writing file")
	}
	return errors.Wrap(out.Close(), "closing file")
}

func (s *LocalStore) saveResized(field, dst string, src io.Reader) error {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return invalid(field, errNotAnImage)
	}
	if b := img.Bounds(); s.maxDimension > 0 && (b.Dx() > s.maxDimension || b.Dy() > s.maxDimension) {
		img = imaging.Fit(img, s.maxDimension, s.maxDimension, imaging.Lanczos)
	}
	return errors.Wrap(imaging.Save(img, dst), "saving image")
}

// Delete removes the stored file behind url, if it lives under the store's URL prefix.
func (s *LocalStore) Delete(url string) error {
	if url == "" || url == s.placeholder || !strings.HasPrefix(url, s.urlPrefix+"/") {
		return nil
	}
	rel := path.Clean(strings.TrimPrefix(url, s.urlPrefix+"/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}
