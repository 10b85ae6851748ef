package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/fjod/ixplor/internal/auth"
	"github.com/fjod/ixplor/internal/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware binds the caller's gateway session to the request
// context. The id comes from X-Session-ID or, failing that, a bearer token.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get(HeaderSessionID)
		if sid == "" {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				sid = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
		}
		if sid != "" {
			r = r.WithContext(auth.WithSession(r.Context(), sid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests without a session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFrom(r.Context()); !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

// logHandler writes one structured entry per request.
type logHandler struct {
	log  logrus.FieldLogger
	next http.Handler
}

func (lh *logHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	rr := &responseRecorder{w: w}

	log := logger.WithContext(ctx, lh.log).WithFields(logrus.Fields{
		"http.req.path":   r.URL.Path,
		"http.req.method": r.Method,
	})
	if sid, ok := auth.SessionFrom(ctx); ok {
		log = log.WithField("session", sid)
	}
	log.Debug("request started")

	defer func() {
		log.WithFields(logrus.Fields{
			"http.resp.took_ms": int64(time.Since(start) / time.Millisecond),
			"http.resp.status":  rr.status,
			"http.resp.bytes":   rr.b,
		}).Debug("request complete")
	}()

	lh.next.ServeHTTP(rr, r)
}

func LogMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &logHandler{log: log, next: next}
	}
}
