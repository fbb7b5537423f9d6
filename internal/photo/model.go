package photo

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/field-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("photo not found")
	ErrThumbnailNotFound = apperror.NotFound("thumbnail not available for this photo")
	ErrFieldNotFound     = apperror.NotFound("field not found")
	ErrUnsupportedType   = apperror.Validation("only JPEG and PNG images are accepted")
	ErrNotAnImage        = apperror.Validation("uploaded file is not a readable image")
	ErrTooLarge          = apperror.New(http.StatusRequestEntityTooLarge, apperror.KindValidation, "photo exceeds the maximum upload size")
)

// Photo is an image attached to a field. Paths are storage-relative.
type Photo struct {
	ID            string
	FieldID       string
	UploadedBy    string
	Filename      string
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// URL returns the public download path of the original image.
func URL(id string) string {
	return "/v1/files/" + id
}

// ThumbnailURL returns the public download path of the thumbnail.
func ThumbnailURL(id string) string {
	return "/v1/files/" + id + "/thumbnail"
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}
