package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/judgelink/apiserver/internal/services"
)

const testJWTSecret = "test-secret"

const cfDump = `[
	{"contestId": 150, "index": "D", "name": "Divide by 2 or 3"},
	{"contestId": 151, "index": "A", "name": "Soldier and Bananas"}
]`

func newAdminRouter(kv *memKV) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/admin", func(r chi.Router) {
		AdminRouter(r, services.NewPreloader(kv), nil, RequireAuth(testJWTSecret))
	})
	return router
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestPreloadEndpoint(t *testing.T) {
	kv := &memKV{data: map[string]string{}}
	router := newAdminRouter(kv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/preload/cf", strings.NewReader(cfDump))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if kv.data["cf:150"] != `{"D":"Divide by 2 or 3"}` {
		t.Errorf("cf:150 = %q", kv.data["cf:150"])
	}
	if kv.data["cf:151"] != `{"A":"Soldier and Bananas"}` {
		t.Errorf("cf:151 = %q", kv.data["cf:151"])
	}
}

func TestPreloadEndpointRequiresAuth(t *testing.T) {
	router := newAdminRouter(&memKV{data: map[string]string{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/preload/cf", strings.NewReader(cfDump))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/preload/cf", strings.NewReader(cfDump))
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPreloadEndpointUnknownPlatform(t *testing.T) {
	router := newAdminRouter(&memKV{data: map[string]string{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/preload/uva", strings.NewReader(cfDump))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPreloadEndpointObjectWithoutStorage(t *testing.T) {
	router := newAdminRouter(&memKV{data: map[string]string{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/preload/cf?object=dumps/problems.json", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
