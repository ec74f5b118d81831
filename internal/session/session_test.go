package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/haswanth04/examctl/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUser() model.User {
	return model.User{
		ID:    42,
		Name:  "Alice Johnson",
		Email: "alice@example.com",
		Role:  model.RoleStudent,
	}
}

func TestLoginLogout(t *testing.T) {
	db := testDB(t)
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if s.IsAuthenticated() {
		t.Error("fresh store should not be authenticated")
	}
	if s.CurrentUser() != nil {
		t.Error("fresh store should have no user")
	}

	user := testUser()
	if err := s.Login("tok-123", user); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !s.IsAuthenticated() {
		t.Error("store should be authenticated after login")
	}
	if got := s.Token(); got != "tok-123" {
		t.Errorf("Token() = %q, want %q", got, "tok-123")
	}
	got := s.CurrentUser()
	if got == nil || got.Email != user.Email || got.Role != user.Role {
		t.Errorf("CurrentUser() = %+v, want %+v", got, user)
	}

	s.Logout()
	if s.IsAuthenticated() {
		t.Error("store should not be authenticated after logout")
	}
	if s.Token() != "" {
		t.Error("token should be cleared after logout")
	}
}

func TestRehydrateAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.Login("tok-persist", testUser()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db2.Close()
	s2, err := NewStore(db2)
	if err != nil {
		t.Fatalf("NewStore() after reopen error = %v", err)
	}
	if !s2.IsAuthenticated() {
		t.Fatal("session should survive a process restart")
	}
	if got := s2.Token(); got != "tok-persist" {
		t.Errorf("Token() = %q, want %q", got, "tok-persist")
	}
	if got := s2.CurrentUser(); got == nil || got.ID != 42 {
		t.Errorf("CurrentUser() = %+v, want ID 42", got)
	}
}

func TestRehydrateDiscardsPartialRecord(t *testing.T) {
	db := testDB(t)

	// Token without a matching identity record.
	if _, err := db.db.Exec(
		`INSERT INTO session (key, value) VALUES (?, ?)`, keyToken, "orphan",
	); err != nil {
		t.Fatalf("seed partial record: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("partial record should not authenticate the session")
	}

	token, userJSON, err := db.readSession()
	if err != nil {
		t.Fatalf("readSession() error = %v", err)
	}
	if token != "" || userJSON != "" {
		t.Errorf("partial record should be wiped, got token=%q user=%q", token, userJSON)
	}
}

func TestRehydrateDiscardsUnreadableRecord(t *testing.T) {
	db := testDB(t)
	if err := db.writeSession("tok", "{not json"); err != nil {
		t.Fatalf("writeSession() error = %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("unreadable record should not authenticate the session")
	}
}

func TestLoginClearsStaleCache(t *testing.T) {
	db := testDB(t)
	if err := db.SetCache("availableQuizzes", `[]`); err != nil {
		t.Fatalf("SetCache() error = %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.Login("tok", testUser()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, ok, err := db.GetCache("availableQuizzes"); err != nil || ok {
		t.Errorf("cache from a previous session should be gone, ok=%v err=%v", ok, err)
	}
}

func TestSubscribeNotifications(t *testing.T) {
	db := testDB(t)
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	var calls int
	s.Subscribe(func() { calls++ })

	if err := s.Login("tok", testUser()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls after login = %d, want 1", calls)
	}

	s.Logout()
	if calls != 2 {
		t.Errorf("calls after logout = %d, want 2", calls)
	}

	// Logout when already logged out must not notify again.
	s.Logout()
	if calls != 2 {
		t.Errorf("calls after repeated logout = %d, want 2", calls)
	}
}

func TestTokenExpiry(t *testing.T) {
	db := testDB(t)
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if _, ok := s.TokenExpiry(); ok {
		t.Error("logged-out store should report no expiry")
	}

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := s.Login(unsignedJWT(t, exp), testUser()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	got, ok := s.TokenExpiry()
	if !ok {
		t.Fatal("expected an expiry from a JWT with exp claim")
	}
	if !got.Equal(exp) {
		t.Errorf("TokenExpiry() = %v, want %v", got, exp)
	}

	if err := s.Login("opaque-token", testUser()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, ok := s.TokenExpiry(); ok {
		t.Error("opaque token should report no expiry")
	}
}

func unsignedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]any{"exp": exp.Unix()})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(claims)
	return fmt.Sprintf("%s.%s.", header, payload)
}

func TestHomeRouteFor(t *testing.T) {
	tests := []struct {
		role model.Role
		want string
	}{
		{model.RoleAdmin, model.RouteAdminDashboard},
		{model.RoleExaminer, model.RouteExaminerDashboard},
		{model.RoleStudent, model.RouteUserDashboard},
		{model.Role("UNKNOWN"), model.RouteLogin},
		{model.Role(""), model.RouteLogin},
	}
	for _, tt := range tests {
		if got := model.HomeRouteFor(tt.role); got != tt.want {
			t.Errorf("HomeRouteFor(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}
