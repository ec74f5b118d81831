package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/haswanth04/examctl/internal/model"
)

// Table rendering for list screens. Kept deliberately plain: fixed columns,
// tab alignment, RFC 3339 dates.

func RenderQuizzes(out io.Writer, quizzes []model.QuizSummary) {
	if len(quizzes) == 0 {
		fmt.Fprintln(out, "No quizzes available.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tQUESTIONS\tTIME\tEXAMINER\tACTIVE")
	for _, q := range quizzes {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d min\t%s\t%t\n",
			q.ID, q.Title, q.QuestionCount, q.TimeLimit, q.Examiner, q.Active)
	}
	w.Flush()
}

func RenderHistory(out io.Writer, entries []model.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No attempts yet.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUIZ\tSCORE\tSTARTED\tCOMPLETED")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%s\t%s\n",
			e.ID, e.Quiz, e.Score, formatTime(e.StartedAt), formatTime(e.CompletedAt))
	}
	w.Flush()
}

func RenderUsers(out io.Writer, users []model.User) {
	if len(users) == 0 {
		fmt.Fprintln(out, "No users.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.Active)
	}
	w.Flush()
}

func RenderPendingExaminers(out io.Writer, pending []model.PendingExaminer) {
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending examiners.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tREGISTERED")
	for _, p := range pending {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Email, formatTime(p.RegisteredAt))
	}
	w.Flush()
}

func RenderResults(out io.Writer, results model.QuizResults) {
	s := results.Statistics
	fmt.Fprintf(out, "Results: %s\n", s.Title)
	fmt.Fprintf(out, "  average %.1f%%  highest %.1f%%  lowest %.1f%%\n\n",
		s.AverageScore, s.HighestScore, s.LowestScore)

	if len(results.Results) == 0 {
		fmt.Fprintln(out, "No attempts recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tSCORE\tTIME TAKEN\tCOMPLETED")
	for _, r := range results.Results {
		fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%d min\t%s\n",
			r.ID, r.User, r.Score, r.TimeTaken, formatTime(r.CompletedAt))
	}
	w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
