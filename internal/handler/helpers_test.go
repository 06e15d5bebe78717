package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cofounder-match/internal/auth"
	"github.com/sakif/cofounder-match/internal/handler"
	"github.com/sakif/cofounder-match/internal/linkcheck"
	sqliteRepo "github.com/sakif/cofounder-match/internal/repository/sqlite"
	"github.com/sakif/cofounder-match/internal/service"
)

const testSubjectHeader = "X-Test-Subject"

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// testIdentity stands in for the auth middleware: the subject comes from a
// request header.
func testIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sub := r.Header.Get(testSubjectHeader); sub != "" {
			id := auth.NewIdentity("https://id.example", sub, "", sub)
			r = r.WithContext(auth.WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

type testApp struct {
	router   http.Handler
	profiles *service.ProfileService
}

// newTestApp wires real services over an in-memory database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	profiles := service.NewProfileService(db, testLogger)
	checker := linkcheck.New(linkcheck.Config{Timeout: linkcheck.DefaultTimeout}, nil, testLogger)
	links := service.NewLinkService(db, checker, testLogger)

	ph := handler.NewProfileHandler(profiles, testLogger)
	lh := handler.NewLinkHandler(links, testLogger)

	r := chi.NewRouter()
	r.Use(testIdentity)
	r.Get("/api/me", ph.HandleMe)
	r.Post("/api/me", ph.HandleEnsure)
	r.Patch("/api/me", ph.HandleSaveDraft)
	r.Post("/api/me/onboarding", ph.HandleCompleteOnboarding)
	r.Post("/api/me/photos", ph.HandleAddPhoto)
	r.Delete("/api/me/photos/{key}", ph.HandleRemovePhoto)
	r.Post("/api/me/links/recheck", lh.HandleRecheck)
	r.Get("/api/profiles", ph.HandleList)
	r.Get("/api/profiles/{id}", ph.HandleGet)

	return &testApp{router: r, profiles: profiles}
}

// do sends a request as subject ("" for anonymous) with an optional JSON body.
func (a *testApp) do(method, path, subject, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set(testSubjectHeader, subject)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}
