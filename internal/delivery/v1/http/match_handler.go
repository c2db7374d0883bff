package http

import (
	"net/http"

	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
)

type MatchHandler struct {
	matchUsecase usecase.MatchUC
	logger       logger.Logger
}

func NewMatchHandler(matchUsecase usecase.MatchUC, logger logger.Logger) *MatchHandler {
	return &MatchHandler{matchUsecase: matchUsecase, logger: logger}
}

// getMatches
//
//	@Summary		Совпадения для фото события
//	@Description	Возвращает известных персон, найденных на фото. Результат кэшируется.
//	@Tags			matches
//	@Produce		json
//	@Param			photoID	path		int						true	"Идентификатор фото"
//	@Success		200		{array}		domain.MatchResult		"Совпадения, возможно пустые"
//	@Failure		400		{object}	ErrorResponse			"Некорректный идентификатор"
//	@Failure		500		{object}	ErrorResponse			"Ошибка хранилища"
//	@Router			/photos/{photoID}/matches [get]
func (h *MatchHandler) getMatches(w http.ResponseWriter, r *http.Request) {
	photoID, err := parsePhotoID(r)
	if err != nil {
		h.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	matches, err := h.matchUsecase.GetMatches(r.Context(), photoID)
	if err != nil {
		h.logger.Errorf(err, "get matches failed for photo %d", photoID)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, matches)
}

// invalidateMatches
//
//	@Summary		Сброс кэша совпадений
//	@Description	Удаляет закэшированный результат; следующий запрос вычислит его заново.
//	@Tags			matches
//	@Param			photoID	path	int	true	"Идентификатор фото"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse	"Некорректный идентификатор"
//	@Router			/photos/{photoID}/matches [delete]
func (h *MatchHandler) invalidateMatches(w http.ResponseWriter, r *http.Request) {
	photoID, err := parsePhotoID(r)
	if err != nil {
		h.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	if err := h.matchUsecase.InvalidateMatches(r.Context(), photoID); err != nil {
		h.logger.Errorf(err, "invalidate matches failed for photo %d", photoID)
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// health
//
//	@Summary	Проверка доступности
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/health [get]
func (h *MatchHandler) health(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
