package infrastructure

import (
	"net/http"

	"github.com/DRSN-tech/face-matcher/pkg/e"
)

// GetExtensionFromMIME возвращает расширение файла по MIME-типу изображения.
// Поддерживает jpeg, jpg, png, webp. Возвращает ошибку e.ErrUnsupportedMediaType для неподдерживаемых типов.
func GetExtensionFromMIME(mime string) (string, error) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "bin", e.ErrUnsupportedMediaType
	}
}

// DetectImageMIME определяет MIME-тип по содержимому и проверяет, что это поддерживаемое изображение.
func DetectImageMIME(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if _, err := GetExtensionFromMIME(mime); err != nil {
		return mime, err
	}

	return mime, nil
}
