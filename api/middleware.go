package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/warp/leave-planner/i18n"
	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// ACCESS LOG
// =============================================================================

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			ev := logger.Info()
			if ww.Status() >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// =============================================================================
// LOCALE
// =============================================================================

var localeMatcher = language.NewMatcher([]language.Tag{language.German, language.English})

// withLocale picks the message catalog from Accept-Language. Without the
// header the default locale applies.
func withLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Accept-Language")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		tags, _, err := language.ParseAcceptLanguage(header)
		if err != nil || len(tags) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		tag, _, _ := localeMatcher.Match(tags...)
		base, _ := tag.Base()
		next.ServeHTTP(w, r.WithContext(i18n.WithLocale(r.Context(), base.String())))
	})
}

// =============================================================================
// AUTH
// =============================================================================

type actorKey struct{}

// authenticate resolves a bearer token to the acting user. Requests without
// a token pass through anonymously; a bad token is rejected outright.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeUnauthorized(w, r, "invalid authorization header")
			return
		}
		claims, err := h.Tokens.Parse(parts[1])
		if err != nil {
			writeUnauthorized(w, r, "invalid token")
			return
		}

		// Reload so role changes and deletions take effect immediately
		user, err := h.Users.Get(r.Context(), claims.Subject)
		if errors.Is(err, leave.ErrUserNotFound) {
			writeUnauthorized(w, r, "unknown user")
			return
		}
		if err != nil {
			h.writeLeaveError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireActor rejects anonymous requests.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r) == nil {
			writeUnauthorized(w, r, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom returns the logged-in user, or nil.
func actorFrom(r *http.Request) *leave.User {
	u, _ := r.Context().Value(actorKey{}).(*leave.User)
	return u
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, details string) {
	writeError(w, http.StatusUnauthorized, ErrorResponse{
		Error:   leave.Describe(r.Context(), leave.ErrNoActiveUser),
		Kind:    leave.Kind(leave.ErrNoActiveUser),
		Details: details,
	})
}
