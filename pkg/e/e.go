package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с дескрипторами
	ErrMalformedDescriptor = fmt.Errorf("malformed descriptor")
	ErrDimensionMismatch   = fmt.Errorf("descriptor dimension mismatch")
	ErrExtractionFailed    = fmt.Errorf("descriptor extraction failed")
	ErrImageNotFound       = fmt.Errorf("image not found")
	ErrPhotoNotFound       = fmt.Errorf("photo not found")
	ErrPersonNotFound      = fmt.Errorf("person not found")
	ErrImageTooLarge       = fmt.Errorf("image is too large")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrInvalidPhotoID       = fmt.Errorf("invalid photo id")
	ErrInvalidPersonID      = fmt.Errorf("invalid person id")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
