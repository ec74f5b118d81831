package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haswanth04/examctl/internal/i18n"
	"github.com/haswanth04/examctl/internal/model"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

// recordingNotifier captures toast messages for assertions.
type recordingNotifier struct {
	errors []string
	infos  []string
}

func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }
func (n *recordingNotifier) Success(msg string) { n.infos = append(n.infos, msg) }
func (n *recordingNotifier) Info(msg string)    { n.infos = append(n.infos, msg) }

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *recordingNotifier) {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	notify := &recordingNotifier{}
	return New(srv.URL, 5*time.Second, staticToken(token), notify), notify
}

func TestLoginDecodesTokenAndUser(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if got := req.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-1","user":{"id":7,"name":"Bob","email":"bob@example.com","role":"EXAMINER"}}`))
	})
	c, _ := newTestClient(t, r, "")

	token, user, err := c.Login(context.Background(), model.Credentials{Email: "bob@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q, want tok-1", token)
	}
	if user.ID != 7 || user.Role != model.RoleExaminer {
		t.Errorf("user = %+v, want id 7 role EXAMINER", user)
	}
}

func TestBearerHeader(t *testing.T) {
	var gotAuth string
	r := chi.NewRouter()
	r.Get("/user/quizzes", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	c, _ := newTestClient(t, r, "my-token")

	if _, err := c.ListAvailableQuizzes(context.Background()); err != nil {
		t.Fatalf("ListAvailableQuizzes() error = %v", err)
	}
	if gotAuth != "Bearer my-token" {
		t.Errorf("Authorization = %q, want Bearer my-token", gotAuth)
	}
}

func TestNoBearerHeaderWhenLoggedOut(t *testing.T) {
	var gotAuth string
	var hadHeader bool
	r := chi.NewRouter()
	r.Post("/auth/register", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		_, hadHeader = req.Header["Authorization"]
		w.WriteHeader(http.StatusCreated)
	})
	c, _ := newTestClient(t, r, "")

	reg := model.Registration{Name: "x", Email: "x@example.com", Password: "secret1", Role: model.RoleStudent}
	if err := c.Register(context.Background(), reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if hadHeader {
		t.Errorf("Authorization should be absent, got %q", gotAuth)
	}
}

func TestAuthExpiredForcesLogout(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/user/quizzes", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	})
	c, notify := newTestClient(t, r, "stale")

	var loggedOut bool
	c.OnAuthExpired(func() { loggedOut = true })

	_, err := c.ListAvailableQuizzes(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindAuthExpired {
		t.Fatalf("error = %v, want KindAuthExpired", err)
	}
	if !loggedOut {
		t.Error("OnAuthExpired hook should run on 401")
	}
	if len(notify.errors) != 1 || notify.errors[0] != "Session expired. Please login again." {
		t.Errorf("notifications = %v, want the session-expired toast", notify.errors)
	}
}

func TestForbiddenKeepsSession(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/admin/users", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusForbidden)
	})
	c, notify := newTestClient(t, r, "tok")

	var loggedOut bool
	c.OnAuthExpired(func() { loggedOut = true })

	_, err := c.ListUsers(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindForbidden {
		t.Fatalf("error = %v, want KindForbidden", err)
	}
	if loggedOut {
		t.Error("403 must not tear down the session")
	}
	if len(notify.errors) != 1 || !strings.Contains(notify.errors[0], "permission") {
		t.Errorf("notifications = %v, want the not-permitted toast", notify.errors)
	}
}

func TestServerMessagePreferred(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"message":"Invalid email or password"}`, http.StatusBadRequest)
	})
	c, notify := newTestClient(t, r, "")

	_, _, err := c.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "wrong"})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindRequest {
		t.Fatalf("error = %v, want KindRequest", err)
	}
	if len(notify.errors) != 1 || notify.errors[0] != "Invalid email or password" {
		t.Errorf("notifications = %v, want the server message verbatim", notify.errors)
	}
}

func TestGenericFallbackWithoutMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind Kind
		wantMsg  string
	}{
		{"not found", http.StatusNotFound, KindNotFound, "Resource not found."},
		{"server error", http.StatusInternalServerError, KindServer, "Server error. Please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/user/history", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
			})
			c, notify := newTestClient(t, r, "tok")

			_, err := c.History(context.Background())
			var apiErr *Error
			if !errors.As(err, &apiErr) || apiErr.Kind != tt.wantKind {
				t.Fatalf("error = %v, want kind %d", err, tt.wantKind)
			}
			if len(notify.errors) != 1 || notify.errors[0] != tt.wantMsg {
				t.Errorf("notifications = %v, want %q", notify.errors, tt.wantMsg)
			}
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init() error = %v", err)
	}
	notify := &recordingNotifier{}
	c := New("http://127.0.0.1:1", time.Second, staticToken(""), notify)

	_, err := c.History(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNetwork {
		t.Fatalf("error = %v, want KindNetwork", err)
	}
	if len(notify.errors) != 1 || !strings.Contains(notify.errors[0], "Network error") {
		t.Errorf("notifications = %v, want the network toast", notify.errors)
	}
}

func TestSubmitQuizPayload(t *testing.T) {
	var gotBody string
	r := chi.NewRouter()
	r.Post("/user/submit-quiz/{id}", func(w http.ResponseWriter, req *http.Request) {
		if got := chi.URLParam(req, "id"); got != "9" {
			t.Errorf("quiz id = %q, want 9", got)
		}
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	})
	c, _ := newTestClient(t, r, "tok")

	answers := []model.SubmittedAnswer{
		{QuestionID: 1, SelectedOptionID: "11"},
		{QuestionID: 2, Answer: "free text"},
		{QuestionID: 3},
	}
	if err := c.SubmitQuiz(context.Background(), 9, answers); err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}

	want := `{"answers":[{"questionId":1,"selectedOptionId":"11"},{"questionId":2,"answer":"free text"},{"questionId":3}]}`
	if gotBody != want {
		t.Errorf("body = %s, want %s", gotBody, want)
	}
}

func TestSetUserActiveBody(t *testing.T) {
	var gotBody string
	r := chi.NewRouter()
	r.Put("/admin/users/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	})
	c, _ := newTestClient(t, r, "tok")

	if err := c.SetUserActive(context.Background(), 5, false); err != nil {
		t.Fatalf("SetUserActive() error = %v", err)
	}
	if gotBody != `{"active":false}` {
		t.Errorf("body = %s, want {\"active\":false}", gotBody)
	}
}

func TestExportResultsCSVStreams(t *testing.T) {
	const csv = "user,score\nalice,90\n"
	r := chi.NewRouter()
	r.Get("/examiner/quizzes/{id}/export-csv", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csv))
	})
	c, _ := newTestClient(t, r, "tok")

	var out strings.Builder
	if err := c.ExportResultsCSV(context.Background(), 3, &out); err != nil {
		t.Fatalf("ExportResultsCSV() error = %v", err)
	}
	if out.String() != csv {
		t.Errorf("export = %q, want %q", out.String(), csv)
	}
}
