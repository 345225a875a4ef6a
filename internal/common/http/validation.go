package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RequiredFields returns a validation error when any `validate:"required"`
// field of req is empty. Message names the fields the caller must send.
func RequiredFields(req any, message string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return commonerrors.ErrInternalError.WithCause(err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, strings.ToLower(fe.Field()))
	}
	return commonerrors.NewDomainError(
		CodeEmptyFields,
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		message,
	).WithCause(errors.New("missing: " + strings.Join(missing, ", ")))
}
