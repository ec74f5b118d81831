package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/haswanth04/examctl/internal/attempt"
	"github.com/haswanth04/examctl/internal/catalog"
	"github.com/haswanth04/examctl/internal/i18n"
)

// TakeQuiz runs the interactive take-quiz flow for one quiz: load detail
// (with retry on failure), start the attempt, answer and navigate under the
// countdown, and submit. The attempt machine owns all state; this flow only
// translates terminal input into machine events and renders machine state.
//
// All input flows through one line channel so the attempt loop can select
// between user input and timer expiry without two readers competing for
// stdin.
func TakeQuiz(ctx context.Context, in io.Reader, out io.Writer, cat *catalog.Catalog, submit attempt.Submitter, quizID int64) error {
	lines := readLines(bufio.NewReader(in))
	machine := attempt.New(submit, &lineConfirmer{lines: lines, out: out})

	// Detail is always fetched fresh on entry, never served from a cache.
	for {
		detail, err := cat.LoadDetail(ctx, quizID)
		if err != nil {
			machine.MarkLoadFailed()
			fmt.Fprintln(out, "The quiz could not be loaded. It may have been removed or you don't have access to it.")
			again, promptErr := promptYesNo(lines, out, "Try again? (yes/no): ")
			if promptErr != nil {
				return promptErr
			}
			if !again {
				return err
			}
			if err := machine.Retry(); err != nil {
				return err
			}
			continue
		}
		if err := machine.SetDetail(detail); err != nil {
			return err
		}
		break
	}

	detail := machine.Detail()
	fmt.Fprintf(out, "\n%s\n", detail.Title)
	if detail.Description != "" {
		fmt.Fprintln(out, detail.Description)
	}
	fmt.Fprintf(out, "%d questions, %d minute time limit. Once started, the timer cannot be paused.\n",
		len(detail.Questions), detail.TimeLimit)

	start, err := promptYesNo(lines, out, "Start quiz? (yes/no): ")
	if err != nil {
		return err
	}
	if !start {
		return nil
	}

	if err := machine.Start(); err != nil {
		return err
	}
	return runAttempt(ctx, lines, out, cat, machine)
}

func runAttempt(ctx context.Context, lines <-chan string, out io.Writer, cat *catalog.Catalog, machine *attempt.Machine) error {
	expired := make(chan struct{}, 1)
	countdown := attempt.StartCountdown(time.Second, func() {
		if machine.Tick() {
			select {
			case expired <- struct{}{}:
			default:
			}
		}
	})
	// Every exit path below runs through this: no tick can outlive the flow
	// and mutate a discarded attempt.
	defer countdown.Stop()

	for {
		renderQuestion(out, machine)
		fmt.Fprint(out, "> ")

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-expired:
			fmt.Fprintln(out)
			fmt.Fprintln(out, i18n.T("TimeUp"))
			if err := machine.SendAnswers(ctx); err != nil {
				// Answers are intact; the time is spent, so the countdown
				// stops and only a manual retry remains.
				countdown.Stop()
				fmt.Fprintln(out, "Type 'submit' to retry, or 'quit' to abandon the attempt.")
				continue
			}
			return finishAttempt(ctx, out, cat)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			done, err := handleCommand(ctx, out, cat, machine, line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// handleCommand dispatches one input line. done is true when the flow is
// over (submitted or quit).
func handleCommand(ctx context.Context, out io.Writer, cat *catalog.Catalog, machine *attempt.Machine, line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "help":
		printTakeHelp(out)
	case "next", "n":
		machine.Next()
	case "prev", "p":
		machine.Previous()
	case "goto", "g":
		n, convErr := parseQuestionNumber(fields)
		if convErr != nil {
			fmt.Fprintln(out, "usage: goto <question number>")
			return false, nil
		}
		machine.JumpTo(n - 1)
	case "text", "t":
		q := machine.CurrentQuestion()
		if q.HasOptions() {
			fmt.Fprintln(out, "This is a multiple-choice question; answer with a letter.")
			return false, nil
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if err := machine.EnterText(q.ID, text); err != nil {
			return false, err
		}
	case "submit":
		switch err := machine.Submit(ctx); {
		case err == nil:
			return true, finishAttempt(ctx, out, cat)
		case errors.Is(err, attempt.ErrSubmitDeclined):
			// Back to the question; nothing was sent.
		case errors.Is(err, attempt.ErrWrongPhase):
			// Expired mid-confirmation; the expiry branch takes over.
		default:
			// Gateway already notified; answers and clock are intact.
		}
	case "quit":
		return true, nil
	default:
		if selectByLetter(out, machine, cmd) {
			return false, nil
		}
		fmt.Fprintln(out, "Unknown command. Type 'help' for usage.")
	}
	return false, nil
}

func parseQuestionNumber(fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, errors.New("missing question number")
	}
	return strconv.Atoi(fields[1])
}

// selectByLetter maps a single letter to an option of the current question.
func selectByLetter(out io.Writer, machine *attempt.Machine, input string) bool {
	if len(input) != 1 {
		return false
	}
	letter := input[0]
	if letter < 'a' || letter > 'z' {
		return false
	}
	q := machine.CurrentQuestion()
	if !q.HasOptions() {
		fmt.Fprintln(out, "This question takes a text answer; use 'text <your answer>'.")
		return true
	}
	idx := int(letter - 'a')
	if idx >= len(q.Options) {
		fmt.Fprintf(out, "Please answer A-%c.\n", 'A'+len(q.Options)-1)
		return true
	}
	if err := machine.SelectOption(q.ID, q.Options[idx].ID); err == nil {
		machine.Next()
	}
	return true
}

func finishAttempt(ctx context.Context, out io.Writer, cat *catalog.Catalog) error {
	fmt.Fprintln(out, i18n.T("SubmitSuccess"))
	// Mirror the post-submit navigation to past history.
	if entries, err := cat.RefreshHistory(ctx); err == nil {
		fmt.Fprintln(out)
		RenderHistory(out, entries)
	}
	return nil
}

func renderQuestion(out io.Writer, machine *attempt.Machine) {
	if machine.Phase() != attempt.PhaseInProgress {
		return
	}
	detail := machine.Detail()
	q := machine.CurrentQuestion()
	idx := machine.CurrentIndex()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "[%s]  question %d of %d  (%d unanswered)\n",
		formatCountdown(machine.RemainingSeconds()), idx+1, len(detail.Questions), machine.Unanswered())
	fmt.Fprintf(out, "Q%d: %s\n", idx+1, q.Text)

	answer := machine.Answer(q.ID)
	if q.HasOptions() {
		for i, opt := range q.Options {
			marker := " "
			if answer == strconv.FormatInt(opt.ID, 10) {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %c. %s\n", marker, 'A'+i, opt.Text)
		}
	} else if answer != "" {
		fmt.Fprintf(out, "  current answer: %s\n", answer)
	} else {
		fmt.Fprintln(out, "  (free-text answer; use 'text <your answer>')")
	}
}

func formatCountdown(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func printTakeHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  a, b, c, ...       choose an option for the current question")
	fmt.Fprintln(out, "  text <answer>      answer a free-text question")
	fmt.Fprintln(out, "  next / prev        move between questions")
	fmt.Fprintln(out, "  goto <n>           jump to question n")
	fmt.Fprintln(out, "  submit             submit the attempt")
	fmt.Fprintln(out, "  quit               leave without submitting")
}

// lineConfirmer implements the unanswered-question confirmation exchange
// over the shared input line channel.
type lineConfirmer struct {
	lines <-chan string
	out   io.Writer
}

func (c *lineConfirmer) ConfirmSubmit(unanswered int) bool {
	ok, err := promptYesNo(c.lines, c.out, i18n.Tp("UnansweredConfirm", unanswered)+" (yes/no): ")
	if err != nil {
		return false
	}
	return ok
}

func promptYesNo(lines <-chan string, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, ok := <-lines
		if !ok {
			return false, io.EOF
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

// readLines feeds input lines through a channel so prompts and the attempt
// loop share a single reader. The channel closes on EOF.
func readLines(reader *bufio.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				lines <- line
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}
