package mediasvc

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduquest/core"
)

func newStore(t *testing.T) *LocalStore {
	return &LocalStore{
		root:         t.TempDir(),
		urlPrefix:    "/static",
		maxSize:      1 << 20,
		maxDimension: 32,
		placeholder:  "/static/images/default-school.jpg",
		now:          func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) },
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

// fileHeader builds a *multipart.FileHeader the same way echo does when parsing a form.
func fileHeader(t *testing.T, field, fname string, content []byte) *multipart.FileHeader {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, fname)
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	_, fh, err := req.FormFile(field)
	require.NoError(t, err)
	return fh
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photo.png", "photo.png"},
		{"my school photo.JPG", "my_school_photo.JPG"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\pic.gif`, "pic.gif"},
		{"école été.png", "cole_t.png"},
		{"...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestLocalStore_SaveImage(t *testing.T) {
	s := newStore(t)

	t.Run("resizes large images", func(t *testing.T) {
		url, err := s.SaveImage("image", fileHeader(t, "image", "big school.png", pngBytes(t, 64, 48)), core.SchoolImagesDir)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/static/images/schools/20240501103000_"), url)
		assert.True(t, strings.HasSuffix(url, "_big_school.png"), url)

		f, err := os.Open(filepath.Join(s.root, strings.TrimPrefix(url, "/static/")))
		require.NoError(t, err)
		defer f.Close()
		cfg, _, err := image.DecodeConfig(f)
		require.NoError(t, err)
		assert.Equal(t, 32, cfg.Width)
		assert.Equal(t, 24, cfg.Height)
	})

	t.Run("unique names", func(t *testing.T) {
		content := pngBytes(t, 8, 8)
		url1, err := s.SaveImage("photo", fileHeader(t, "photo", "me.png", content), core.PrincipalImagesDir)
		require.NoError(t, err)
		url2, err := s.SaveImage("photo", fileHeader(t, "photo", "me.png", content), core.PrincipalImagesDir)
		require.NoError(t, err)
		assert.NotEqual(t, url1, url2)
	})

	t.Run("invalid uploads", func(t *testing.T) {
		tests := []struct {
			name string
			fh   *multipart.FileHeader
			want string
		}{
			{"no file", nil, errNoFile.Error()},
			{"bad extension", fileHeader(t, "image", "doc.pdf", []byte("%PDF")), errInvalidType.Error()},
			{"not an image", fileHeader(t, "image", "fake.png", []byte("hello")), errNotAnImage.Error()},
			{"gif not an image", fileHeader(t, "image", "x.gif", []byte("#!/bin/sh\nrm -rf /\n")), errNotAnImage.Error()},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.SaveImage("image", tt.fh, core.SchoolImagesDir)
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, "got %v", err)
				require.Len(t, verr.Fields, 1)
				assert.Equal(t, "image", verr.Fields[0].Field)
				assert.Equal(t, tt.want, verr.Fields[0].Error)
			})
		}
	})

	t.Run("gifs are stored as is", func(t *testing.T) {
		content := gifBytes(t)
		url, err := s.SaveImage("image", fileHeader(t, "image", "anim.gif", content), core.SchoolImagesDir)
		require.NoError(t, err)
		stored, err := os.ReadFile(filepath.Join(s.root, strings.TrimPrefix(url, "/static/")))
		require.NoError(t, err)
		assert.Equal(t, content, stored)
	})

	t.Run("rejected uploads leave no file", func(t *testing.T) {
		clean := newStore(t)
		_, err := clean.SaveImage("image", fileHeader(t, "image", "x.gif", []byte("GIF? no")), core.SchoolImagesDir)
		require.Error(t, err)
		entries, _ := os.ReadDir(filepath.Join(clean.root, core.SchoolImagesDir))
		assert.Empty(t, entries)
	})

	t.Run("too large", func(t *testing.T) {
		small := newStore(t)
		small.maxSize = 10
		_, err := small.SaveImage("image", fileHeader(t, "image", "a.png", pngBytes(t, 8, 8)), core.SchoolImagesDir)
		assert.IsType(t, &core.ValidationError{}, err)
	})
}

func TestLocalStore_Delete(t *testing.T) {
	s := newStore(t)
	url, err := s.SaveImage("image", fileHeader(t, "image", "a.png", pngBytes(t, 8, 8)), core.SchoolImagesDir)
	require.NoError(t, err)
	fpath := filepath.Join(s.root, strings.TrimPrefix(url, "/static/"))
	require.FileExists(t, fpath)

	assert.NoError(t, s.Delete(url))
	assert.NoFileExists(t, fpath)

	// already gone, placeholder, external & escaping URLs are no-ops
	assert.NoError(t, s.Delete(url))
	assert.NoError(t, s.Delete(s.placeholder))
	assert.NoError(t, s.Delete("https://cdn.example.com/a.png"))
	assert.NoError(t, s.Delete("/static/../secret"))
	assert.NoError(t, s.Delete(""))
}
