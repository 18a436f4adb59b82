package content

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the largest payload accepted for analysis.
const MaxImageBytes = 20 << 20

// UploadedImage is an image payload staged for one generation request.
type UploadedImage struct {
	Data     []byte
	MIMEType string
	// Preview is a reference the UI can resolve locally, such as a Telegram
	// file id or the uploaded file name.
	Preview string
}

// NewUploadedImage sniffs the payload and rejects anything that is not an
// image. Errors match ErrValidation.
func NewUploadedImage(data []byte, preview string) (*UploadedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrValidation)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit is %d", ErrValidation, len(data), MaxImageBytes)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: unsupported file type %s", ErrValidation, mt.String())
	}
	return &UploadedImage{
		Data:     data,
		MIMEType: mt.String(),
		Preview:  preview,
	}, nil
}

// Validate checks an image that was built without NewUploadedImage.
func (img *UploadedImage) Validate() error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("%w: image is required", ErrValidation)
	}
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return fmt.Errorf("%w: unsupported file type %q", ErrValidation, img.MIMEType)
	}
	return nil
}
