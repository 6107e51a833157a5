package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/platform/httputil"
)

// HostTokenHeader carries the shared secret of the hosting runtime.
const HostTokenHeader = "X-Host-Token"

// RequireHostToken only admits calls from the host that holds expectedToken.
func RequireHostToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HostTokenHeader)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "host token mismatch",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "host token required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
