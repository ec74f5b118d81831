// Package api is the single point of outbound calls to the examination
// backend. Every call attaches the bearer token, normalizes failures into
// the taxonomy in errors.go, surfaces them once through the notifier, and
// rejects back to the caller. There is no retry policy: a failure is
// surfaced once, and callers that need a retry re-invoke explicitly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/haswanth04/examctl/internal/i18n"
	"github.com/haswanth04/examctl/internal/model"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the current bearer token, empty when logged out.
// Satisfied by *session.Store.
type TokenSource interface {
	Token() string
}

// Notifier is the toast surface. The gateway is the only component that
// notifies about transport failures.
type Notifier interface {
	Error(msg string)
	Success(msg string)
	Info(msg string)
}

// Client calls the examination backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	notify  Notifier

	// onAuthExpired runs once per 401, after the notification and before
	// the error is returned. Wiring points it at session teardown plus
	// navigation to the login screen.
	onAuthExpired func()
}

// New builds a gateway client. baseURL is the backend root, e.g.
// "https://exams.example.com/api".
func New(baseURL string, timeout time.Duration, tokens TokenSource, notify Notifier) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		notify:  notify,
	}
}

// OnAuthExpired registers the forced-logout hook invoked on HTTP 401.
func (c *Client) OnAuthExpired(fn func()) {
	c.onAuthExpired = fn
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a bearer token and identity.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, model.User, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return "", model.User{}, err
	}
	return resp.Token, resp.User, nil
}

// Register creates a new account with the requested role.
func (c *Client) Register(ctx context.Context, reg model.Registration) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/register", reg, nil)
}

// ListUsers returns every account (admin).
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserActive enables or disables an account (admin).
func (c *Client) SetUserActive(ctx context.Context, userID int64, active bool) error {
	body := map[string]bool{"active": active}
	return c.doJSON(ctx, http.MethodPut, "/admin/users/"+formatID(userID)+"/status", body, nil)
}

// ListPendingExaminers returns examiner accounts awaiting approval (admin).
func (c *Client) ListPendingExaminers(ctx context.Context) ([]model.PendingExaminer, error) {
	var pending []model.PendingExaminer
	if err := c.doJSON(ctx, http.MethodGet, "/admin/pending-examiners", nil, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// ApproveExaminer approves a pending examiner account (admin).
func (c *Client) ApproveExaminer(ctx context.Context, examinerID int64) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/examiners/"+formatID(examinerID)+"/approve", nil, nil)
}

// RejectExaminer rejects a pending examiner account (admin).
func (c *Client) RejectExaminer(ctx context.Context, examinerID int64) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/examiners/"+formatID(examinerID)+"/reject", nil, nil)
}

// ListExaminerQuizzes returns the quizzes owned by the current examiner.
func (c *Client) ListExaminerQuizzes(ctx context.Context) ([]model.QuizSummary, error) {
	var quizzes []model.QuizSummary
	if err := c.doJSON(ctx, http.MethodGet, "/examiner/quizzes", nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// CreateQuiz publishes a new quiz (examiner).
func (c *Client) CreateQuiz(ctx context.Context, draft model.QuizDraft) error {
	return c.doJSON(ctx, http.MethodPost, "/examiner/create-quiz", draft, nil)
}

// QuizResults returns statistics and per-attempt records for one quiz
// (examiner).
func (c *Client) QuizResults(ctx context.Context, quizID int64) (model.QuizResults, error) {
	var results model.QuizResults
	if err := c.doJSON(ctx, http.MethodGet, "/examiner/quizzes/"+formatID(quizID)+"/results", nil, &results); err != nil {
		return model.QuizResults{}, err
	}
	return results, nil
}

// ExportResultsCSV streams the server-rendered CSV for one quiz into w.
// The schema is server-defined and treated as opaque bytes.
func (c *Client) ExportResultsCSV(ctx context.Context, quizID int64, w io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/examiner/quizzes/"+formatID(quizID)+"/export-csv", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(&Error{Kind: KindNetwork})
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.failStatus(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ListAvailableQuizzes returns the quizzes the student may take.
func (c *Client) ListAvailableQuizzes(ctx context.Context) ([]model.QuizSummary, error) {
	var quizzes []model.QuizSummary
	if err := c.doJSON(ctx, http.MethodGet, "/user/quizzes", nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// QuizDetail returns a quiz with its ordered questions and options.
func (c *Client) QuizDetail(ctx context.Context, quizID int64) (model.QuizDetail, error) {
	var detail model.QuizDetail
	if err := c.doJSON(ctx, http.MethodGet, "/user/quizzes/"+formatID(quizID), nil, &detail); err != nil {
		return model.QuizDetail{}, err
	}
	return detail, nil
}

type submitRequest struct {
	Answers []model.SubmittedAnswer `json:"answers"`
}

// SubmitQuiz sends the student's answers for one quiz.
func (c *Client) SubmitQuiz(ctx context.Context, quizID int64, answers []model.SubmittedAnswer) error {
	return c.doJSON(ctx, http.MethodPost, "/user/submit-quiz/"+formatID(quizID), submitRequest{Answers: answers}, nil)
}

// History returns the student's past attempts.
func (c *Client) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/user/history", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(&Error{Kind: KindNetwork})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.failStatus(resp)
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(responseBody)
}

type errorResponse struct {
	Message string `json:"message"`
}

// failStatus turns a non-2xx response into an *Error, notifies once, and
// triggers forced logout on auth expiry.
func (c *Client) failStatus(resp *http.Response) error {
	apiErr := &Error{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}
	var payload errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		apiErr.Message = strings.TrimSpace(payload.Message)
	}
	return c.fail(apiErr)
}

// fail performs the single user notification for a failure, then returns the
// error so screen-level state (spinners, empty states) can also react.
func (c *Client) fail(apiErr *Error) error {
	switch apiErr.Kind {
	case KindAuthExpired:
		c.notify.Error(i18n.T("SessionExpired"))
		if c.onAuthExpired != nil {
			c.onAuthExpired()
		}
	case KindForbidden:
		c.notify.Error(i18n.T("NotPermitted"))
	default:
		// Prefer the server-supplied message over the generic string.
		if apiErr.Message != "" {
			c.notify.Error(apiErr.Message)
			break
		}
		switch apiErr.Kind {
		case KindNotFound:
			c.notify.Error(i18n.T("NotFound"))
		case KindServer:
			c.notify.Error(i18n.T("ServerError"))
		case KindNetwork:
			c.notify.Error(i18n.T("NetworkError"))
		default:
			c.notify.Error(i18n.T("GenericError"))
		}
	}
	return apiErr
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
