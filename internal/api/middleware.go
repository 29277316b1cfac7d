// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"time"

	"sponsorloop-workers/internal/common/auth"
	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/models"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const ctxKeyViewer ctxKey = "viewer"

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeStandardError(w, errors.NewViewerResolutionFailedError(err))
			return
		}
		viewer, err := h.deps.Resolver.Resolve(r.Context(), token)
		if err != nil {
			h.logger.Warn("Viewer resolution failed", map[string]interface{}{
				"requestId": middleware.GetReqID(r.Context()),
				"error":     err,
			})
			writeStandardError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyViewer, viewer)))
	})
}

func viewerFromContext(ctx context.Context) (models.ViewerContext, bool) {
	v, ok := ctx.Value(ctxKeyViewer).(models.ViewerContext)
	return v, ok
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("Handler panicked", map[string]interface{}{
					"requestId": middleware.GetReqID(r.Context()),
					"panic":     rec,
				})
				writeError(w, http.StatusInternalServerError, string(errors.ErrCodeInternal), "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Debug("Request served", map[string]interface{}{
			"requestId": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start).String(),
		})
	})
}
