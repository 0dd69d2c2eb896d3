package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/tradebook/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"

	// pendingMarker is what the store holds while the first request runs.
	pendingMarker = "processing"
)

var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// IdempotencyStore is the store the middleware needs: claim, finish and
// release a key.
type IdempotencyStore interface {
	usecase.IdempotencyStore
	Release(ctx context.Context, key string) error
}

// IdempotencyMiddleware replays the response of a completed mutating request
// that is repeated with the same Idempotency-Key.
type IdempotencyMiddleware struct {
	store IdempotencyStore
	ttl   time.Duration
}

func NewIdempotencyMiddleware(store IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Wrap claims the key before calling next. Only 2xx responses are kept for
// replay; anything else releases the key so the client can retry.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(IdempotencyKeyHeader)
		if header == "" || !mutatingMethods[r.Method] {
			next.ServeHTTP(w, r)
			return
		}
		// Scoped to the route so one key cannot replay another endpoint.
		key := r.Method + " " + r.URL.Path + " " + header
		log := zerolog.Ctx(r.Context())

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Str("idempotency_key", header).Msg("idempotency check failed")
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}
		if exists {
			if cached == nil || string(cached) == pendingMarker {
				http.Error(w, "request with this idempotency key is in progress", http.StatusConflict)
				return
			}
			replay(w, cached)
			return
		}

		body := &bytes.Buffer{}
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(body)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		ctx := context.WithoutCancel(r.Context())
		if status < 200 || status >= 300 {
			m.release(ctx, log, key)
			return
		}

		payload, err := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: ww.Header().Get("Content-Type"),
			Body:        body.Bytes(),
		})
		if err != nil {
			m.release(ctx, log, key)
			return
		}
		if err := m.store.Update(ctx, key, payload, m.ttl); err != nil {
			log.Warn().Err(err).Str("idempotency_key", header).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) release(ctx context.Context, log *zerolog.Logger, key string) {
	if err := m.store.Release(ctx, key); err != nil {
		log.Warn().Err(err).Msg("failed to release idempotency key")
	}
}

func replay(w http.ResponseWriter, raw []byte) {
	var cached cachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil || cached.Status == 0 {
		cached = cachedResponse{Status: http.StatusOK, ContentType: "application/json", Body: raw}
	}

	if cached.ContentType != "" {
		w.Header().Set("Content-Type", cached.ContentType)
	}
	w.Header().Set("X-Idempotency-Replay", "true")
	w.WriteHeader(cached.Status)
	w.Write(cached.Body)
}
