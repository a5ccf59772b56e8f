package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// HeaderRequestID — заголовок корреляции запросов
const HeaderRequestID = "X-Request-ID"

// Заголовки административного входа. Basic auth принимается как альтернатива.
const (
	HeaderAdminUser     = "X-Admin-User"
	HeaderAdminPassword = "X-Admin-Password"
)

type ctxKey struct{}

// RequestIDFrom возвращает id запроса из контекста
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type middleware func(http.Handler) http.Handler

// chain применяет middleware так, что последний в списке оказывается внешним
func chain(h http.Handler, mws ...middleware) http.Handler {
	for _, mw := range mws {
		h = mw(h)
	}
	return h
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogging(logger *log.Entry) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			entry := logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  RequestIDFrom(r.Context()),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("request completed with server error")
				return
			}
			entry.Debug("request completed")
		})
	}
}

func recoverPanics(logger *log.Entry) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					logger.WithFields(log.Fields{
						"panic":      rv,
						"path":       r.URL.Path,
						"request_id": RequestIDFrom(r.Context()),
					}).Error("handler panicked")
					writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", RequestID: RequestIDFrom(r.Context())})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AdminCredentials — учётные данные администратора. Пустой пароль отключает
// административный раздел целиком.
type AdminCredentials struct {
	User     string
	Password string
}

// Enabled сообщает, настроен ли административный вход
func (c AdminCredentials) Enabled() bool { return c.Password != "" }

// Verify сравнивает присланные данные за постоянное время
func (c AdminCredentials) Verify(user, password string) bool {
	if !c.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK
}

// Require пропускает запрос только с верными учётными данными
func (c AdminCredentials) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password := r.Header.Get(HeaderAdminUser), r.Header.Get(HeaderAdminPassword)
		if basicUser, basicPassword, ok := r.BasicAuth(); ok {
			user, password = basicUser, basicPassword
		}
		if !c.Verify(user, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="storefront-admin"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "admin credentials required", RequestID: RequestIDFrom(r.Context())})
			return
		}
		next.ServeHTTP(w, r)
	})
}
