package http

import (
	"net/http"

	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
)

type PersonHandler struct {
	personUsecase usecase.PersonUC
	logger        logger.Logger
}

func NewPersonHandler(personUsecase usecase.PersonUC, logger logger.Logger) *PersonHandler {
	return &PersonHandler{personUsecase: personUsecase, logger: logger}
}

// PersonResponse — персона каталога с ключами эталонных фото.
type PersonResponse struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

// listPersons
//
//	@Summary	Каталог персон
//	@Tags		persons
//	@Produce	json
//	@Success	200	{array}		domain.Person
//	@Failure	500	{object}	ErrorResponse	"Ошибка хранилища"
//	@Router		/persons [get]
func (h *PersonHandler) listPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.personUsecase.ListPersons(r.Context())
	if err != nil {
		h.logger.Errorf(err, "list persons failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, persons)
}

// getPerson
//
//	@Summary	Персона каталога
//	@Tags		persons
//	@Produce	json
//	@Param		personID	path		int				true	"Идентификатор персоны"
//	@Success	200			{object}	PersonResponse
//	@Failure	400			{object}	ErrorResponse	"Некорректный идентификатор"
//	@Failure	404			{object}	ErrorResponse	"Персона не найдена"
//	@Failure	500			{object}	ErrorResponse	"Ошибка хранилища"
//	@Router		/persons/{personID} [get]
func (h *PersonHandler) getPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := parsePersonID(r)
	if err != nil {
		h.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.personUsecase.GetPerson(r.Context(), personID)
	if err != nil {
		code, _ := ToHTTPResponse(err)
		if code == http.StatusNotFound {
			h.logger.Warnf("%d %s", code, err.Error())
		} else {
			h.logger.Errorf(err, "get person %d failed", personID)
		}
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &PersonResponse{
		ID:     res.Person.ID,
		Name:   res.Person.Name,
		Images: res.ImageKeys,
	})
}
