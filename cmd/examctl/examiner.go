package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haswanth04/examctl/internal/cli"
	appI18n "github.com/haswanth04/examctl/internal/i18n"
	"github.com/haswanth04/examctl/internal/model"
)

func examinerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examiner",
		Short: "Examiner operations",
	}
	cmd.AddCommand(
		examinerQuizzesCmd(),
		examinerCreateQuizCmd(),
		examinerResultsCmd(),
		examinerExportCSVCmd(),
	)
	return cmd
}

func examinerQuizzesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quizzes",
		Short: "List quizzes you created",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleExaminer); err != nil {
				return err
			}

			quizzes, err := a.gateway.ListExaminerQuizzes(cmd.Context())
			if err != nil {
				return fmt.Errorf("list quizzes: %w", err)
			}
			cli.RenderQuizzes(os.Stdout, quizzes)
			return nil
		},
	}
}

func examinerCreateQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-quiz",
		Short: "Create a quiz from a JSON file",
		RunE:  runCreateQuiz,
	}
	cmd.Flags().StringP("file", "f", "", "Quiz definition file (JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runCreateQuiz(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireRoles(model.RoleExaminer); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read quiz file: %w", err)
	}
	var draft model.QuizDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return fmt.Errorf("parse quiz file: %w", err)
	}
	if fieldErrs := validateQuizDraft(draft); len(fieldErrs) > 0 {
		printFieldErrors(fieldErrs)
		return fmt.Errorf("invalid quiz definition")
	}

	if err := a.gateway.CreateQuiz(cmd.Context(), draft); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	a.toast.Success(appI18n.T("QuizCreated"))
	return nil
}

func examinerResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results <quiz-id>",
		Short: "Show results for one of your quizzes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleExaminer); err != nil {
				return err
			}

			quizID, err := parseID(args[0])
			if err != nil {
				return err
			}
			results, err := a.gateway.QuizResults(cmd.Context(), quizID)
			if err != nil {
				return fmt.Errorf("quiz results: %w", err)
			}
			cli.RenderResults(os.Stdout, results)
			return nil
		},
	}
}

func examinerExportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv <quiz-id>",
		Short: "Export quiz results as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCSV,
	}
	cmd.Flags().StringP("output", "o", "-", "Output file ('-' for stdout)")
	return cmd
}

func runExportCSV(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireRoles(model.RoleExaminer); err != nil {
		return err
	}

	quizID, err := parseID(args[0])
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	out := os.Stdout
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := a.gateway.ExportResultsCSV(cmd.Context(), quizID, out); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	if outPath != "-" {
		fmt.Printf("Results written to %s\n", outPath)
	}
	return nil
}
