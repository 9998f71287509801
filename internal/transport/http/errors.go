package http

import (
	"errors"
	"net/http"

	apierrors "salesdash/internal/errors"
	"salesdash/internal/services"
)

// serviceError maps service sentinels to API errors. Anything else is left
// to the error handler, which knows about context and source errors.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		return apierrors.ErrDatasetNotLoaded
	case errors.Is(err, services.ErrReloadInProgress):
		return apierrors.ErrReloadInProgress
	case errors.Is(err, services.ErrInvalidPage):
		return apierrors.ErrValidation("offset", err.Error())
	default:
		return err
	}
}

func handleServiceError(eh *apierrors.ErrorHandler, w http.ResponseWriter, r *http.Request, err error) {
	eh.HandleError(w, r, serviceError(err))
}
