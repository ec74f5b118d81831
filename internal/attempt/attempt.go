// Package attempt implements the timed quiz-attempt state machine: one
// student's pass through one quiz's questions. The question pointer, answer
// map, and countdown live in a single unit because they mutate together
// under the per-second tick and must survive a failed submission intact.
package attempt

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/haswanth04/examctl/internal/model"
)

// Phase is the attempt lifecycle state.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseSubmitting
	PhaseSubmitted
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var (
	// ErrNotLoaded means Start was called before quiz detail was loaded.
	ErrNotLoaded = errors.New("quiz detail not loaded")
	// ErrWrongPhase means the operation is not valid in the current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
	// ErrUnknownQuestion means the question id is not part of this quiz.
	ErrUnknownQuestion = errors.New("unknown question id")
	// ErrSubmitDeclined means the user declined the unanswered-question
	// confirmation; the attempt stays in progress and nothing was sent.
	ErrSubmitDeclined = errors.New("submission declined")
)

// Submitter sends the formatted answers. Satisfied by *api.Client.
type Submitter interface {
	SubmitQuiz(ctx context.Context, quizID int64, answers []model.SubmittedAnswer) error
}

// Confirmer is the view layer's side of the confirmation exchange for
// submitting with unanswered questions. The machine requests confirmation
// and waits for the response; it never assumes a blocking UI primitive.
// Time expiry bypasses this exchange entirely.
type Confirmer interface {
	ConfirmSubmit(unanswered int) bool
}

// Machine is the attempt state machine. All mutations happen on discrete
// events; the countdown tick is the only autonomous caller.
type Machine struct {
	submit  Submitter
	confirm Confirmer

	mu        sync.Mutex
	detail    model.QuizDetail
	loaded    bool
	answers   map[int64]string
	index     int
	remaining int
	phase     Phase
	subs      []func()
}

// New builds a machine in NOT_STARTED with no quiz detail loaded.
func New(submit Submitter, confirm Confirmer) *Machine {
	return &Machine{submit: submit, confirm: confirm}
}

// SetDetail installs the loaded quiz detail. Valid in NOT_STARTED and
// ERRORED (the retry path); loading fresh detail recovers from ERRORED.
func (m *Machine) SetDetail(detail model.QuizDetail) error {
	m.mu.Lock()
	if m.phase != PhaseNotStarted && m.phase != PhaseErrored {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	m.detail = detail
	m.loaded = true
	m.phase = PhaseNotStarted
	m.mu.Unlock()
	m.notify()
	return nil
}

// MarkLoadFailed records a detail-load failure: NOT_STARTED -> ERRORED.
func (m *Machine) MarkLoadFailed() {
	m.mu.Lock()
	if m.phase != PhaseNotStarted {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseErrored
	m.mu.Unlock()
	m.notify()
}

// Retry recovers ERRORED back to NOT_STARTED so the caller can reload.
func (m *Machine) Retry() error {
	m.mu.Lock()
	if m.phase != PhaseErrored {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	m.phase = PhaseNotStarted
	m.loaded = false
	m.mu.Unlock()
	m.notify()
	return nil
}

// Start begins the attempt: one empty answer entry per question, pointer at
// the first question, and the quiz's full time limit on the clock.
func (m *Machine) Start() error {
	m.mu.Lock()
	if m.phase != PhaseNotStarted {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	if !m.loaded {
		m.mu.Unlock()
		return ErrNotLoaded
	}
	m.answers = make(map[int64]string, len(m.detail.Questions))
	for _, q := range m.detail.Questions {
		m.answers[q.ID] = ""
	}
	m.index = 0
	m.remaining = m.detail.TimeLimit * 60
	m.phase = PhaseInProgress
	m.mu.Unlock()
	m.notify()
	return nil
}

// SelectOption records a multiple-choice answer, overwriting any previous
// entry. The pointer does not advance.
func (m *Machine) SelectOption(questionID, optionID int64) error {
	return m.setAnswer(questionID, strconv.FormatInt(optionID, 10))
}

// EnterText records a free-text answer, overwriting any previous entry.
func (m *Machine) EnterText(questionID int64, text string) error {
	return m.setAnswer(questionID, text)
}

func (m *Machine) setAnswer(questionID int64, value string) error {
	m.mu.Lock()
	if m.phase != PhaseInProgress {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	if _, ok := m.answers[questionID]; !ok {
		m.mu.Unlock()
		return ErrUnknownQuestion
	}
	m.answers[questionID] = value
	m.mu.Unlock()
	m.notify()
	return nil
}

// Next advances the question pointer; no-op at the last question.
func (m *Machine) Next() { m.moveTo(func(i int) int { return i + 1 }) }

// Previous moves the question pointer back; no-op at the first question.
func (m *Machine) Previous() { m.moveTo(func(i int) int { return i - 1 }) }

// JumpTo sets the question pointer directly, clamped to the valid range.
func (m *Machine) JumpTo(index int) { m.moveTo(func(int) int { return index }) }

func (m *Machine) moveTo(next func(int) int) {
	m.mu.Lock()
	if m.phase != PhaseInProgress {
		m.mu.Unlock()
		return
	}
	m.index = clamp(next(m.index), 0, len(m.detail.Questions)-1)
	m.mu.Unlock()
	m.notify()
}

// Tick consumes one second of the countdown. When the clock reaches zero
// the attempt moves to SUBMITTING and expired is true: the owner must then
// call SendAnswers, with no confirmation regardless of unanswered entries.
// Ticks outside IN_PROGRESS are ignored.
func (m *Machine) Tick() (expired bool) {
	m.mu.Lock()
	if m.phase != PhaseInProgress {
		m.mu.Unlock()
		return false
	}
	if m.remaining > 0 {
		m.remaining--
	}
	if m.remaining == 0 {
		m.phase = PhaseSubmitting
		expired = true
	}
	m.mu.Unlock()
	m.notify()
	return expired
}

// Submit is the manual submission path. With unanswered entries present it
// first runs the confirmation exchange; a decline leaves the attempt
// IN_PROGRESS with no call made. Otherwise the attempt moves to SUBMITTING
// and the answers are sent.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != PhaseInProgress {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	unanswered := m.unansweredLocked()
	m.mu.Unlock()

	if unanswered > 0 {
		// The exchange can take arbitrarily long; the lock is not held, so
		// ticks keep running and the attempt may expire mid-dialog. The
		// phase check below catches that.
		if !m.confirm.ConfirmSubmit(unanswered) {
			return ErrSubmitDeclined
		}
	}

	m.mu.Lock()
	if m.phase != PhaseInProgress {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	m.phase = PhaseSubmitting
	m.mu.Unlock()
	m.notify()

	return m.SendAnswers(ctx)
}

// SendAnswers performs the network submission for an attempt already in
// SUBMITTING. Success ends the attempt (SUBMITTED, terminal). Failure
// returns it to IN_PROGRESS with every answer and the clock intact, so the
// student can retry without loss.
func (m *Machine) SendAnswers(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != PhaseSubmitting {
		m.mu.Unlock()
		return ErrWrongPhase
	}
	quizID := m.detail.ID
	payload := m.formatAnswersLocked()
	m.mu.Unlock()

	err := m.submit.SubmitQuiz(ctx, quizID, payload)

	m.mu.Lock()
	if err != nil {
		m.phase = PhaseInProgress
	} else {
		m.phase = PhaseSubmitted
	}
	m.mu.Unlock()
	m.notify()
	return err
}

// formatAnswersLocked builds one record per question in quiz order: a
// chosen-option reference for option questions, free text otherwise.
func (m *Machine) formatAnswersLocked() []model.SubmittedAnswer {
	answers := make([]model.SubmittedAnswer, 0, len(m.detail.Questions))
	for _, q := range m.detail.Questions {
		entry := model.SubmittedAnswer{QuestionID: q.ID}
		if q.HasOptions() {
			entry.SelectedOptionID = m.answers[q.ID]
		} else {
			entry.Answer = m.answers[q.ID]
		}
		answers = append(answers, entry)
	}
	return answers
}

// Phase returns the current lifecycle state.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Detail returns the loaded quiz detail.
func (m *Machine) Detail() model.QuizDetail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detail
}

// CurrentIndex returns the question pointer.
func (m *Machine) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// CurrentQuestion returns the question under the pointer.
func (m *Machine) CurrentQuestion() model.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.detail.Questions) == 0 {
		return model.Question{}
	}
	return m.detail.Questions[m.index]
}

// RemainingSeconds returns the countdown value.
func (m *Machine) RemainingSeconds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Answer returns the recorded answer for a question (empty if unanswered).
func (m *Machine) Answer(questionID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.answers[questionID]
}

// Answers returns a copy of the answer map.
func (m *Machine) Answers() map[int64]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]string, len(m.answers))
	for k, v := range m.answers {
		out[k] = v
	}
	return out
}

// Unanswered returns the count of empty answer entries.
func (m *Machine) Unanswered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unansweredLocked()
}

func (m *Machine) unansweredLocked() int {
	n := 0
	for _, v := range m.answers {
		if v == "" {
			n++
		}
	}
	return n
}

// Subscribe registers a change listener invoked once per state mutation.
// Listeners run outside the machine's lock and may read machine state.
func (m *Machine) Subscribe(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Machine) notify() {
	m.mu.Lock()
	subs := make([]func(), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
