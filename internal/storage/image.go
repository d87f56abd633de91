package storage

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/frahmantamala/paylink/internal"
)

// Limits bounds what PrepareImage accepts.
type Limits struct {
	MaxBytes     int64
	MaxDimension int
}

var acceptedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// PrepareImage reads an uploaded file, checks that it really is an image within limits and
// downscales oversized PNG/JPEG images. The returned file is fully buffered.
func PrepareImage(field string, f *File, limits Limits) (*File, error) {
	data, err := io.ReadAll(io.LimitReader(f.Body, limits.MaxBytes+1))
	if err != nil {
		return nil, internal.NewValidationFieldError(field, fmt.Sprintf("%s could not be read", field), internal.ErrCodeValidationFailed).WithCause(err)
	}
	if int64(len(data)) > limits.MaxBytes {
		return nil, internal.NewValidationFieldError(field, fmt.Sprintf("%s must not exceed %d bytes", field, limits.MaxBytes), internal.ErrCodeFileTooLarge)
	}
	if len(data) == 0 {
		return nil, internal.NewValidationFieldError(field, fmt.Sprintf("%s is empty", field), internal.ErrCodeInvalidFileType)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), acceptedImageTypes...) {
		return nil, internal.NewValidationFieldError(field, fmt.Sprintf("%s must be a PNG, JPEG, GIF or WebP image", field), internal.ErrCodeInvalidFileType)
	}

	out := &File{
		Filename:    f.Filename,
		ContentType: mtype.String(),
	}

	if resized, ok := downscale(data, mtype.String(), limits.MaxDimension); ok {
		data = resized
	}

	out.Body = bytes.NewReader(data)
	out.Size = int64(len(data))
	return out, nil
}

func downscale(data []byte, contentType string, maxDim int) ([]byte, bool) {
	if maxDim <= 0 {
		return nil, false
	}

	var format imaging.Format
	switch contentType {
	case "image/png":
		format = imaging.PNG
	case "image/jpeg":
		format = imaging.JPEG
	default:
		return nil, false
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		return nil, false
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, maxDim, maxDim, imaging.Lanczos), format); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
