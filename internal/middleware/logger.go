package middleware

import (
	"net/http"
	"time"

	"sessionauth/internal/logger"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type HTTPObserver interface {
	ObserveHTTP(route, method string, status int, d time.Duration)
}

// Logging пишет строку лога на каждый запрос и, если задан obs, длительность в метрики.
// Маршрут берётся шаблоном mux, чтобы не плодить метки по id в пути.
func Logging(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(lrw, r)

			elapsed := time.Since(start)
			route := routeTemplate(r)

			logger.WithCtx(r.Context()).Info("HTTP-запрос",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", elapsed),
			)

			if obs != nil {
				obs.ObserveHTTP(route, r.Method, lrw.statusCode, elapsed)
			}
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	if !lrw.wroteHeader {
		lrw.statusCode = code
		lrw.wroteHeader = true
	}
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	lrw.wroteHeader = true
	return lrw.ResponseWriter.Write(b)
}
