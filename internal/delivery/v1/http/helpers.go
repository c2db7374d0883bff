package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/go-chi/chi/v5"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrInvalidPhotoID):
		return http.StatusBadRequest, e.ErrInvalidPhotoID.Error()
	case errors.Is(err, e.ErrInvalidPersonID):
		return http.StatusBadRequest, e.ErrInvalidPersonID.Error()
	case errors.Is(err, e.ErrPersonNotFound):
		return http.StatusNotFound, e.ErrPersonNotFound.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePhotoID читает положительный идентификатор фото из пути запроса.
func parsePhotoID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "photoID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(raw, e.ErrInvalidPhotoID)
	}

	return id, nil
}

func parsePersonID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "personID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(raw, e.ErrInvalidPersonID)
	}

	return id, nil
}
