package service

import (
	"net/http"

	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
)

var (
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryAuth,
		http.StatusBadRequest,
		"Login data invalid",
	)

	ErrUsernameTaken = commonerrors.NewDomainError(
		"USERNAME_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusBadRequest,
		"Username taken",
	)

	ErrInvalidToken = commonerrors.NewDomainError(
		"INVALID_TOKEN",
		commonerrors.CategoryAuth,
		http.StatusBadRequest,
		"Token is no longer valid",
	)

	ErrRefreshTokenRequired = commonerrors.NewDomainError(
		"REFRESH_TOKEN_REQUIRED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Refresh token required",
	)

	ErrRefreshTokenMissing = commonerrors.NewDomainError(
		"REFRESH_TOKEN_MISSING",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Refresh token missing",
	)

	ErrNotTokenOwner = commonerrors.NewDomainError(
		"NOT_TOKEN_OWNER",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"You do not own this token",
	)

	ErrValidationUsername = commonerrors.NewDomainError(
		"VALIDATION_USERNAME",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Invalid username",
	)

	ErrValidationName = commonerrors.NewDomainError(
		"VALIDATION_NAME",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Invalid name",
	)

	ErrValidationEmail = commonerrors.NewDomainError(
		"VALIDATION_EMAIL",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Invalid email",
	)

	ErrValidationPassword = commonerrors.NewDomainError(
		"VALIDATION_PASSWORD",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Invalid password",
	)
)

func newInternalError(code, message string, cause error) commonerrors.DomainError {
	err := commonerrors.NewDomainError(
		code,
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		message,
	)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}
