package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jonny/instance-bot/pkg/apierror"
)

// Recover turns a panic anywhere below it into a 500 with the generic error
// body. The panic value and stack are logged only.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic while handling request",
						"panic", rec,
						"path", r.URL.Path,
						"requestID", RequestID(r.Context()),
						"stack", string(debug.Stack()),
					)
					apierror.Write(w, apierror.Internal())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
