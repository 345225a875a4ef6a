package http

import (
	"net/http"

	"github.com/jakobkordez/wmm-reborn/internal/common/constants"
	"github.com/jakobkordez/wmm-reborn/internal/common/httpmetrics"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
)

// BuildBaseHandler wraps the application mux with the shared middleware chain.
// Trace ids are assigned before recovery so panics are logged with one.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)

	return SecurityHeadersMiddleware(TraceIDMiddleware(recovery(maxRequestSize(collector.Wrap(handler)))))
}
