// Package imagesvc stores member photos as downscaled JPEG files served under a URL prefix.
package imagesvc

import (
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
)

const (
	imageExt    = ".jpg"
	jpegQuality = 85
)

var newName = uuid.NewString // mockable

type Service struct {
	dir       string
	urlPrefix string
	maxWidth  int
	maxHeight int
}

func NewService(conf core.UploadsConfig) (*Service, error) {
	if err := os.MkdirAll(conf.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads directory")
	}
	return &Service{
		dir:       conf.Dir,
		urlPrefix: "/" + strings.Trim(conf.URLPrefix, "/"),
		maxWidth:  conf.MaxWidth,
		maxHeight: conf.MaxHeight,
	}, nil
}

// Dir is the directory holding the stored files.
func (svc *Service) Dir() string { return svc.dir }

// URLPrefix is the path under which stored files are served.
func (svc *Service) URLPrefix() string { return svc.urlPrefix }

// SaveFile stores an uploaded multipart file. See Save.
func (svc *Service) SaveFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()
	return svc.Save(f)
}

// Save decodes an image, applies its EXIF orientation, fits it into the configured bounds
// and stores it as JPEG. It returns the reference (URL path) of the stored file.
func (svc *Service) Save(r io.Reader) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", core.NewValidationError(err, core.FieldError{Field: "image", Error: "unsupported or corrupt image"})
	}
	if svc.maxWidth > 0 && svc.maxHeight > 0 {
		img = imaging.Fit(img, svc.maxWidth, svc.maxHeight, imaging.Lanczos)
	}

	name := newName() + imageExt
	if err = imaging.Save(img, filepath.Join(svc.dir, name), imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", errors.Wrap(err, "saving image")
	}
	return path.Join(svc.urlPrefix, name), nil
}

// Remove deletes the file behind ref. Unknown references and missing files are ignored.
func (svc *Service) Remove(ref string) error {
	if !strings.HasPrefix(ref, svc.urlPrefix+"/") {
		return nil
	}
	name := path.Base(ref)
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return nil
	}
	err := os.Remove(filepath.Join(svc.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing image")
	}
	return nil
}
