package storage

import (
	"context"
	"mime/multipart"
)

// FileUploader абстрагирует объектное хранилище для логотипов и аватаров.
// Upload кладёт файл под уникальным ключом внутри prefix и возвращает ключ.
type FileUploader interface {
	Upload(ctx context.Context, prefix string, file multipart.File, header *multipart.FileHeader) (string, error)

	Delete(ctx context.Context, key string) error

	PublicURL(key string) string
}
