package echoapi

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
)

const (
	rollNoParam = "roll_no"
	imageField  = "image"
)

// ImageStore stores uploaded member photos.
type ImageStore interface {
	SaveFile(fh *multipart.FileHeader) (string, error)
	Remove(ref string) error
	// URLPrefix and Dir locate the stored files for static serving.
	URLPrefix() string
	Dir() string
}

// bindRollNo reads the canonical roll number from the path.
func bindRollNo(ctx echo.Context) (core.RollNo, error) {
	rollNo := core.NewRollNo(ctx.Param(rollNoParam))
	if rollNo == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: rollNoParam, Error: "this field is required"})
	}
	return rollNo, nil
}

// bindImage stores the optional multipart image of the request and returns its reference ("" when absent).
func bindImage(ctx echo.Context, images ImageStore) (string, error) {
	ctype := ctx.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		return "", nil
	}
	fh, err := ctx.FormFile(imageField)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", errors.Wrap(err, "reading image")
	}
	if images == nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: imageField, Error: "image uploads are disabled"})
	}
	return images.SaveFile(fh)
}
