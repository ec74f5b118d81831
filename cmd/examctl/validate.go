package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/haswanth04/examctl/internal/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validateCredentials checks a login form before anything is sent.
func validateCredentials(c model.Credentials) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(c.Email) == "" {
		errs["email"] = "email is required"
	} else if !emailPattern.MatchString(c.Email) {
		errs["email"] = "email is not valid"
	}
	if c.Password == "" {
		errs["password"] = "password is required"
	}
	return errs
}

// validateRegistration checks a registration form before anything is sent.
// Only student and examiner accounts can self-register.
func validateRegistration(r model.Registration) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(r.Email) == "" {
		errs["email"] = "email is required"
	} else if !emailPattern.MatchString(r.Email) {
		errs["email"] = "email is not valid"
	}
	if len(r.Password) < 6 {
		errs["password"] = "password must be at least 6 characters"
	}
	if r.Role != model.RoleStudent && r.Role != model.RoleExaminer {
		errs["role"] = "role must be USER or EXAMINER"
	}
	return errs
}

// validateQuizDraft checks an authored quiz. Multiple-choice questions need
// at least two options and exactly one marked correct; free-text questions
// carry no options at all.
func validateQuizDraft(d model.QuizDraft) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = "title is required"
	}
	if d.TimeLimit <= 0 {
		errs["timeLimit"] = "time limit must be a positive number of minutes"
	}
	if len(d.Questions) == 0 {
		errs["questions"] = "at least one question is required"
	}
	for i, q := range d.Questions {
		key := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Text) == "" {
			errs[key] = "question text is required"
			continue
		}
		if q.Points <= 0 {
			errs[key] = "points must be positive"
			continue
		}
		if len(q.Options) == 0 {
			continue
		}
		if len(q.Options) < 2 {
			errs[key] = "multiple-choice questions need at least two options"
			continue
		}
		correct := 0
		for _, o := range q.Options {
			if strings.TrimSpace(o.Text) == "" {
				errs[key] = "option text is required"
			}
			if o.IsCorrect {
				correct++
			}
		}
		if _, bad := errs[key]; !bad && correct != 1 {
			errs[key] = "exactly one option must be marked correct"
		}
	}
	return errs
}
