package storage

import (
	"context"
	"errors"
	"mime/multipart"
)

var ErrUploadsDisabled = errors.New("file storage is not configured")

type disabledUploader struct{}

// NewDisabledUploader - заглушка на случай, когда R2 не настроен:
// загрузки отклоняются, публичные URL не формируются.
func NewDisabledUploader() FileUploader {
	return disabledUploader{}
}

func (disabledUploader) Upload(ctx context.Context, prefix string, file multipart.File, header *multipart.FileHeader) (string, error) {
	return "", ErrUploadsDisabled
}

func (disabledUploader) Delete(ctx context.Context, key string) error {
	return nil
}

func (disabledUploader) PublicURL(key string) string {
	return ""
}
