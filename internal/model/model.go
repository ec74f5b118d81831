package model

import "time"

// Role represents a user's access level as named by the backend.
type Role string

const (
	// RoleAdmin is an administrator account.
	RoleAdmin Role = "ADMIN"
	// RoleExaminer is an examiner account (authors quizzes, reviews results).
	RoleExaminer Role = "EXAMINER"
	// RoleStudent is a regular quiz-taking account.
	RoleStudent Role = "USER"
)

// Screen route paths. The terminal client has no URL bar, but authorization
// decisions and role home screens are still expressed as route paths so they
// line up with what the backend authorizes per role.
const (
	RouteLogin             = "/login"
	RouteAdminDashboard    = "/admin/dashboard"
	RouteExaminerDashboard = "/examiner/dashboard"
	RouteUserDashboard     = "/user/dashboard"
)

// HomeRouteFor returns the default screen path for a role.
// Unknown or absent roles map to the login screen.
func HomeRouteFor(role Role) string {
	switch role {
	case RoleAdmin:
		return RouteAdminDashboard
	case RoleExaminer:
		return RouteExaminerDashboard
	case RoleStudent:
		return RouteUserDashboard
	default:
		return RouteLogin
	}
}

// User is the identity returned by the backend on login.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuizSummary is the lightweight listing record for a quiz, without
// question content.
type QuizSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"questionCount"`
	TimeLimit     int       `json:"timeLimit"` // minutes
	Examiner      string    `json:"examiner"`
	CreatedAt     time.Time `json:"createdAt"`
	Active        bool      `json:"active"`
}

// Option is a single multiple-choice option.
type Option struct {
	ID   int64  `json:"id"`
	Text string `json:"optionText"`
}

// Question is one question of a quiz detail. An empty Options slice means
// the question takes a free-text answer.
type Question struct {
	ID      int64    `json:"id"`
	Text    string   `json:"questionText"`
	Options []Option `json:"options"`
}

// HasOptions reports whether the question is multiple-choice.
func (q Question) HasOptions() bool { return len(q.Options) > 0 }

// QuizDetail is a full quiz record including its ordered questions.
// Correctness flags are never present: the backend omits them for takers.
type QuizDetail struct {
	QuizSummary
	Questions []Question `json:"questions"`
}

// SubmittedAnswer is one answer record in a quiz submission. Exactly one of
// SelectedOptionID or Answer is set, matching the question kind.
type SubmittedAnswer struct {
	QuestionID       int64  `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
	Answer           string `json:"answer,omitempty"`
}

// HistoryEntry is one past attempt in the student's history.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Quiz        string    `json:"quiz"`
	Score       float64   `json:"score"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// ResultStatistics is the aggregate block of an examiner results response.
type ResultStatistics struct {
	Title        string  `json:"title"`
	AverageScore float64 `json:"averageScore"`
	HighestScore float64 `json:"highestScore"`
	LowestScore  float64 `json:"lowestScore"`
}

// AttemptResult is one student's graded attempt in an examiner results view.
type AttemptResult struct {
	ID          int64     `json:"id"`
	User        string    `json:"user"`
	Score       float64   `json:"score"`
	TimeTaken   int       `json:"timeTaken"` // minutes
	CompletedAt time.Time `json:"completedAt"`
}

// QuizResults bundles statistics with per-attempt records for one quiz.
type QuizResults struct {
	Statistics ResultStatistics `json:"statistics"`
	Results    []AttemptResult  `json:"results"`
}

// PendingExaminer is an examiner account awaiting admin approval.
type PendingExaminer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Credentials carries a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration carries a register request, including the requested role.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// QuizDraft is the payload for examiner quiz creation.
type QuizDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	TimeLimit   int             `json:"timeLimit"`
	Questions   []QuestionDraft `json:"questions"`
}

// QuestionDraft is one authored question. Leave Options empty for an
// essay/free-text question.
type QuestionDraft struct {
	Text    string        `json:"questionText"`
	Points  int           `json:"points"`
	Options []OptionDraft `json:"options,omitempty"`
}

// OptionDraft is one authored multiple-choice option.
type OptionDraft struct {
	Text      string `json:"optionText"`
	IsCorrect bool   `json:"isCorrect"`
}
