package service

import (
	"github.com/jakobkordez/wmm-reborn/internal/observability/metrics"
)

func incrementAccountsRegistered() {
	metrics.AccountsRegistered.Inc()
}

func recordLogin(result string) {
	metrics.LoginAttempts.WithLabelValues(result).Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensExchanged() {
	metrics.RefreshTokensExchanged.Inc()
}

func incrementRefreshTokensRejected() {
	metrics.RefreshTokensRejected.Inc()
}

func incrementRefreshTokensRevoked() {
	metrics.RefreshTokensRevoked.Inc()
}

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func recordValidation(kind string) {
	metrics.JWTValidationsTotal.WithLabelValues(kind).Inc()
}

func recordValidationFailure(kind, reason string) {
	metrics.JWTValidationsFailed.WithLabelValues(kind, reason).Inc()
}
