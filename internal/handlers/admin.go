package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/judgelink/apiserver/internal/services"
	"github.com/judgelink/apiserver/internal/storage"
	"github.com/judgelink/apiserver/types"
)

const maxDumpBytes = 512 << 20

// AdminHandler serves the administrative bulk-preload surface.
type AdminHandler struct {
	preloader *services.Preloader
	dumps     storage.DumpStore
}

// NewAdminHandler constructs a handler with the provided dependencies.
func NewAdminHandler(preloader *services.Preloader, dumps storage.DumpStore) *AdminHandler {
	return &AdminHandler{preloader: preloader, dumps: dumps}
}

// AdminRouter registers administrative routes on the given router.
func AdminRouter(r chi.Router, preloader *services.Preloader, dumps storage.DumpStore, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAdminHandler(preloader, dumps)

	r.With(authMiddleware).Post("/preload/{platform}", handler.Preload)
}

// Preload bulk-loads cache entries from an upstream dump. The dump comes
// from the request body, or from object storage when ?object= is given.
func (h *AdminHandler) Preload(w http.ResponseWriter, r *http.Request) {
	var platform types.Platform
	switch strings.ToLower(chi.URLParam(r, "platform")) {
	case "cf":
		platform = types.PlatformCodeforces
	case "atc":
		platform = types.PlatformAtCoder
	default:
		writeError(w, http.StatusBadRequest, "unknown platform")
		return
	}

	opts, err := parsePreloadOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.readDump(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var stats services.PreloadStats
	switch platform {
	case types.PlatformCodeforces:
		stats, err = h.preloader.PreloadCodeforces(r.Context(), data, opts)
	case types.PlatformAtCoder:
		stats, err = h.preloader.PreloadAtCoder(r.Context(), data, opts)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func parsePreloadOptions(r *http.Request) (services.PreloadOptions, error) {
	opts := services.PreloadOptions{
		SkipExisting: r.URL.Query().Get("skip_existing") == "true",
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("max_keys")); raw != "" {
		maxKeys, err := strconv.Atoi(raw)
		if err != nil || maxKeys < 0 {
			return services.PreloadOptions{}, errors.New("invalid max_keys")
		}
		opts.MaxKeys = maxKeys
	}
	return opts, nil
}

func (h *AdminHandler) readDump(r *http.Request) ([]byte, error) {
	if object := strings.TrimSpace(r.URL.Query().Get("object")); object != "" {
		if h.dumps == nil {
			return nil, errors.New("no dump storage configured")
		}
		reader, err := h.dumps.Get(r.Context(), object)
		if err != nil {
			return nil, errors.New("failed to fetch dump object")
		}
		defer func() {
			_ = reader.Close()
		}()
		return readLimited(reader)
	}
	return readLimited(r.Body)
}

func readLimited(reader io.Reader) ([]byte, error) {
	limited := io.LimitReader(reader, maxDumpBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read dump")
	}
	if int64(len(data)) > maxDumpBytes {
		return nil, errors.New("dump too large")
	}
	if len(data) == 0 {
		return nil, errors.New("empty dump")
	}
	return data, nil
}

// RequireAuth enforces JWT bearer auth and injects the subject into context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret))
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
