package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andrewbot/andrewbot/mailer"
	"github.com/andrewbot/andrewbot/service"
	"github.com/andrewbot/andrewbot/webserver/controller"
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newTestServer(t *testing.T) (*gin.Engine, *service.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database, err := bolt.Open(filepath.Join(t.TempDir(), "bolt.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	sessions := service.New(database, time.Hour)
	ctrl := controller.New(sessions, mailer.PrintMailer{}, "@uwaterloo.ca")
	return New(ctrl), sessions
}

func doGet(engine *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	engine.ServeHTTP(w, req)
	return w
}

func doPostForm(engine *gin.Engine, target string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	engine.ServeHTTP(w, req)
	return w
}

func TestStartFlow(t *testing.T) {
	engine, sessions := newTestServer(t)
	secondaryID, err := sessions.CreateOrGet(42, 7, "alice#1234")
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	startURL := fmt.Sprintf("/start/42/%s", secondaryID)

	w := doGet(engine, startURL)
	if w.Code != http.StatusOK {
		t.Fatalf("GET start: status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `name="email"`) {
		t.Error("start page is missing the email form")
	}

	// wrong capability and unknown user both land on the 404 page
	if w := doGet(engine, fmt.Sprintf("/start/42/%s", uuid.New())); w.Code != http.StatusNotFound {
		t.Errorf("GET start with wrong secondary id: status %d, want 404", w.Code)
	}
	if w := doGet(engine, fmt.Sprintf("/start/999/%s", secondaryID)); w.Code != http.StatusNotFound {
		t.Errorf("GET start for unknown user: status %d, want 404", w.Code)
	}

	// an address outside the allowed domain bounces back to the form
	w = doPostForm(engine, startURL, url.Values{"email": {"alice@gmail.com"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != startURL {
		t.Errorf("POST bad domain: status %d location %q, want 303 back to start", w.Code, w.Header().Get("Location"))
	}

	verifyURL := fmt.Sprintf("/verify/42/%s", secondaryID)
	w = doPostForm(engine, startURL, url.Values{"email": {"alice@uwaterloo.ca"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != verifyURL {
		t.Fatalf("POST email: status %d location %q, want 303 to verify", w.Code, w.Header().Get("Location"))
	}

	// once the code is out, /start only forwards to /verify
	w = doGet(engine, startURL)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != verifyURL {
		t.Errorf("GET start after email: status %d location %q, want 303 to verify", w.Code, w.Header().Get("Location"))
	}
}

func TestVerifyFlow(t *testing.T) {
	engine, sessions := newTestServer(t)
	secondaryID, err := sessions.CreateOrGet(42, 7, "alice#1234")
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	if err := sessions.SetEmailSent(42, secondaryID); err != nil {
		t.Fatalf("SetEmailSent: %v", err)
	}
	session, err := sessions.Session(42, secondaryID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	verifyURL := fmt.Sprintf("/verify/42/%s", secondaryID)

	wrong := "000000"
	if session.Code == wrong {
		wrong = "999999"
	}
	w := doPostForm(engine, verifyURL, url.Values{"verification": {wrong}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != verifyURL {
		t.Errorf("POST wrong code: status %d location %q, want 303 back to verify", w.Code, w.Header().Get("Location"))
	}
	w = doGet(engine, verifyURL)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Attempts remaining: 4") {
		t.Errorf("GET verify: status %d, want 200 showing 4 attempts left", w.Code)
	}

	w = doPostForm(engine, verifyURL, url.Values{"verification": {session.Code}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/success" {
		t.Fatalf("POST correct code: status %d location %q, want 303 to /success", w.Code, w.Header().Get("Location"))
	}
	// refreshing the verify page after success never re-submits anything
	w = doGet(engine, verifyURL)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/success" {
		t.Errorf("GET verify after success: status %d location %q", w.Code, w.Header().Get("Location"))
	}
}

func TestVerifyExhaustionRedirectsToFailure(t *testing.T) {
	engine, sessions := newTestServer(t)
	secondaryID, err := sessions.CreateOrGet(42, 7, "alice#1234")
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	if err := sessions.SetEmailSent(42, secondaryID); err != nil {
		t.Fatalf("SetEmailSent: %v", err)
	}
	session, _ := sessions.Session(42, secondaryID)
	wrong := "000000"
	if session.Code == wrong {
		wrong = "999999"
	}
	verifyURL := fmt.Sprintf("/verify/42/%s", secondaryID)
	var w *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		w = doPostForm(engine, verifyURL, url.Values{"verification": {wrong}})
	}
	if w.Header().Get("Location") != "/failure" {
		t.Errorf("5th wrong attempt: location %q, want /failure", w.Header().Get("Location"))
	}
	if w := doGet(engine, verifyURL); w.Header().Get("Location") != "/failure" {
		t.Errorf("GET verify after exhaustion: location %q, want /failure", w.Header().Get("Location"))
	}
}

func TestStaticPages(t *testing.T) {
	engine, _ := newTestServer(t)
	for _, target := range []string{"/", "/success", "/failure"} {
		w := doGet(engine, target)
		if w.Code != http.StatusOK {
			t.Errorf("GET %v: status %d, want 200", target, w.Code)
		}
		if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
			t.Errorf("GET %v: Cache-Control = %q, want immutable caching", target, cc)
		}
	}
}

func TestMalformedAndUnknownRoutes(t *testing.T) {
	engine, _ := newTestServer(t)
	for _, target := range []string{
		"/start/abc/8ab14a16-9168-4d44-95d7-605ef23583f8",
		"/start/42/not-a-uuid",
		"/verify/42/not-a-uuid",
		"/no-such-page",
	} {
		if w := doGet(engine, target); w.Code != http.StatusNotFound {
			t.Errorf("GET %v: status %d, want 404", target, w.Code)
		}
	}
}
