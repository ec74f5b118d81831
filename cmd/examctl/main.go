package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/haswanth04/examctl/internal/api"
	"github.com/haswanth04/examctl/internal/authz"
	"github.com/haswanth04/examctl/internal/catalog"
	"github.com/haswanth04/examctl/internal/cli"
	appI18n "github.com/haswanth04/examctl/internal/i18n"
	"github.com/haswanth04/examctl/internal/model"
	"github.com/haswanth04/examctl/internal/session"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examctl",
		Short: "Terminal client for the examination platform",
	}

	pf := root.PersistentFlags()
	pf.StringP("server", "s", "https://springbootsdpexaminationsystem.up.railway.app/api", "Backend API base URL")
	pf.String("state-db", defaultStateDBPath(), "Path to the local state database")
	pf.StringP("lang", "l", "en", "UI language (en, ru)")
	pf.Duration("timeout", 15*time.Second, "HTTP request timeout")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	root.AddCommand(
		loginCmd(), logoutCmd(), registerCmd(), whoamiCmd(),
		quizzesCmd(), takeCmd(), historyCmd(),
		examinerCmd(), adminCmd(),
	)
	return root
}

func defaultStateDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "examctl.db"
	}
	return filepath.Join(dir, "examctl", "state.db")
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	_ = v.BindPFlags(cmd.Root().PersistentFlags())

	v.SetEnvPrefix("EXAMCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examctl")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examctl")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	}

	return v
}

// app wires the stores and the gateway for one command invocation.
type app struct {
	v       *viper.Viper
	db      *session.DB
	session *session.Store
	toast   *cli.Toast
	gateway *api.Client
	catalog *catalog.Catalog
}

func newApp(cmd *cobra.Command) (*app, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	dbPath := v.GetString("state-db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := session.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	sess, err := session.NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	toast := cli.NewToast(os.Stdout)
	gateway := api.New(v.GetString("server"), v.GetDuration("timeout"), sess, toast)
	cat := catalog.New(gateway, db)

	// Auth expiry forces session teardown; the catalog follows the session.
	gateway.OnAuthExpired(func() {
		sess.Logout()
		fmt.Println("Please run 'examctl login' to sign in again.")
	})
	sess.Subscribe(func() {
		if !sess.IsAuthenticated() {
			cat.Invalidate()
		}
	})

	return &app{v: v, db: db, session: sess, toast: toast, gateway: gateway, catalog: cat}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		slog.Warn("failed to close state database", "error", err)
	}
}

// requireRoles gates a command the way screens are gated: unauthenticated
// callers are sent to login, authenticated callers with the wrong role are
// pointed at their own home screen.
func (a *app) requireRoles(required ...model.Role) error {
	var role model.Role
	if u := a.session.CurrentUser(); u != nil {
		role = u.Role
	}
	d := authz.Decide(a.session.IsAuthenticated(), role, required)
	if d.Allowed {
		return nil
	}
	if d.RedirectTo == model.RouteLogin {
		return fmt.Errorf("not signed in: run 'examctl login' first")
	}
	return fmt.Errorf("not available for your role (your screens are under %s)", d.RedirectTo)
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE:  runLogin,
	}
	f := cmd.Flags()
	f.StringP("email", "e", "", "Account email")
	f.StringP("password", "p", "", "Account password (or set EXAMCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	creds := model.Credentials{
		Email:    a.v.GetString("email"),
		Password: a.v.GetString("password"),
	}
	if fieldErrs := validateCredentials(creds); len(fieldErrs) > 0 {
		printFieldErrors(fieldErrs)
		return fmt.Errorf("invalid input")
	}

	token, user, err := a.gateway.Login(cmd.Context(), creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := a.session.Login(token, user); err != nil {
		return err
	}
	a.toast.Success(appI18n.T("LoginSuccess"))
	fmt.Printf("Signed in as %s (%s). Home screen: %s\n", user.Name, user.Role, model.HomeRouteFor(user.Role))
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			a.session.Logout()
			a.toast.Info(appI18n.T("LoggedOut"))
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE:  runRegister,
	}
	f := cmd.Flags()
	f.String("name", "", "Full name")
	f.StringP("email", "e", "", "Email address")
	f.StringP("password", "p", "", "Password (min 6 characters)")
	f.String("role", string(model.RoleStudent), "Requested role (USER or EXAMINER)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runRegister(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	reg := model.Registration{
		Name:     a.v.GetString("name"),
		Email:    a.v.GetString("email"),
		Password: a.v.GetString("password"),
		Role:     model.Role(strings.ToUpper(a.v.GetString("role"))),
	}
	// Validation failures stay local; nothing is sent.
	if fieldErrs := validateRegistration(reg); len(fieldErrs) > 0 {
		printFieldErrors(fieldErrs)
		return fmt.Errorf("invalid input")
	}

	if err := a.gateway.Register(cmd.Context(), reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	a.toast.Success(appI18n.T("RegisterSuccess"))
	return nil
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			u := a.session.CurrentUser()
			if u == nil {
				fmt.Println("Not signed in.")
				return nil
			}
			fmt.Printf("%s <%s>\nrole: %s\nhome: %s\n", u.Name, u.Email, u.Role, model.HomeRouteFor(u.Role))
			if exp, ok := a.session.TokenExpiry(); ok {
				fmt.Printf("token expires: %s\n", exp.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func quizzesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List quizzes available to you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleStudent); err != nil {
				return err
			}

			refresh, _ := cmd.Flags().GetBool("refresh")
			var quizzes []model.QuizSummary
			if refresh {
				quizzes, err = a.catalog.Refresh(cmd.Context())
			} else {
				quizzes, err = a.catalog.ListAvailable(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("list quizzes: %w", err)
			}
			cli.RenderQuizzes(os.Stdout, quizzes)
			return nil
		},
	}
	cmd.Flags().Bool("refresh", false, "Bypass the session cache")
	return cmd
}

func takeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "take <quiz-id>",
		Short: "Take a quiz interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleStudent); err != nil {
				return err
			}

			quizID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return cli.TakeQuiz(cmd.Context(), os.Stdin, os.Stdout, a.catalog, a.gateway, quizID)
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your past quiz attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireRoles(model.RoleStudent); err != nil {
				return err
			}

			refresh, _ := cmd.Flags().GetBool("refresh")
			var entries []model.HistoryEntry
			if refresh {
				entries, err = a.catalog.RefreshHistory(cmd.Context())
			} else {
				entries, err = a.catalog.History(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			cli.RenderHistory(os.Stdout, entries)
			return nil
		},
	}
	cmd.Flags().Bool("refresh", false, "Bypass the session cache")
	return cmd
}

func parseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printFieldErrors(fieldErrs map[string]string) {
	for field, msg := range fieldErrs {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
	}
}
