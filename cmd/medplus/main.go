// Command medplus is a terminal shell over the MedPlus clinic API. It keeps
// the signed-in session between invocations and applies the same route
// guard as the web front end before every protected call.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/medplus/medplus-client/config"
	"github.com/medplus/medplus-client/internal/bootstrap"
	apperrors "github.com/medplus/medplus-client/internal/errors"
	"github.com/medplus/medplus-client/internal/navigation"
	"github.com/medplus/medplus-client/internal/observability/notify"
	"github.com/spf13/pflag"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	// route is the front-end path whose capability requirement guards this
	// command. Empty for commands that work without a session.
	route string
	run   commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	Err    io.Writer
	In     io.Reader

	app *bootstrap.App
}

var (
	errLoginRequired = errors.New("login required: run `medplus login` first")
	errForbidden     = errors.New("your account is not allowed to use this command")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Stdin)
	stop()
	os.Exit(code) //nolint:forbidigo // CLI must propagate command status to the shell
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, stdin io.Reader) int {
	if len(args) < 1 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		if err := printUsage(stdout); err != nil {
			return 1
		}
		if len(args) < 1 {
			return 2
		}
		return 0
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		_ = writef(stderr, "unknown command %q\n\n", cmdName)
		_ = printUsage(stderr)
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		_ = writef(stderr, "load config: %v\n", err)
		return 1
	}
	logger := bootstrap.InitLogger(stderr, cfg.SlogLevel())

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    stdout,
		Err:    stderr,
		In:     stdin,
	}
	defer func() {
		if closeErr := cmdCtx.close(); closeErr != nil {
			logger.Warn("close application failed", "error", closeErr)
		}
	}()

	if err := cmdCtx.guard(cmd); err != nil {
		_ = writef(stderr, "%s: %v\n", cmdName, err)
		return 1
	}
	if runErr := cmd.run(cmdCtx, args[1:]); runErr != nil {
		if errors.Is(runErr, pflag.ErrHelp) {
			return 0
		}
		logger.DebugContext(ctx, "command failed", "command", cmdName, "error", runErr)
		_ = writef(stderr, "%s: %s\n", cmdName, describeError(runErr))
		return 1
	}
	return 0
}

func commands() map[string]command {
	list := []command{
		{name: "login", description: "Sign in and keep the session", run: runLogin},
		{name: "logout", description: "End the current session", run: runLogout},
		{name: "whoami", description: "Show the current identity and capabilities", run: runWhoami},
		{name: "register", description: "Register a new patient account", run: runRegister},
		{name: "can", description: "Show the navigation decision for a path", run: runCan},

		{name: "doctors", description: "List doctors available for booking", route: "/paciente/agendar-consulta", run: runDoctors},
		{name: "book", description: "Book a consultation", route: "/paciente/agendar-consulta", run: runBook},
		{name: "consultations", description: "List your consultations", route: "/paciente/dashboard", run: runConsultations},
		{name: "cancel", description: "Cancel one of your consultations", route: "/paciente/dashboard", run: runCancel},
		{name: "reschedule", description: "Move a consultation to a new date", route: "/paciente/reagendar-consulta/:id", run: runReschedule},

		{name: "agenda", description: "Show the doctor's agenda", route: "/medico/agenda", run: runAgenda},
		{name: "patients", description: "List the doctor's patients", route: "/medico/pacientes", run: runPatients},
		{name: "dashboard", description: "Watch the doctor dashboard, refreshing periodically", route: "/medico/dashboard", run: runDashboard},

		{name: "profile", description: "Show your profile", route: "/perfil", run: runProfile},
		{name: "profile-update", description: "Update profile fields", route: "/perfil", run: runProfileUpdate},
		{name: "avatar", description: "Upload a new profile picture", route: "/perfil", run: runAvatar},
		{name: "delete-account", description: "Delete your account and sign out", route: "/perfil", run: runDeleteAccount},
		{name: "overview", description: "Fetch profile and role data concurrently", route: "/perfil", run: runOverview},

		{name: "admin-stats", description: "Show admin dashboard totals", route: "/admin/dashboard", run: runAdminStats},
		{name: "admin-users", description: "List users of one kind", route: "/admin/gerenciar-usuarios", run: runAdminUsers},
		{name: "admin-delete-user", description: "Delete a user", route: "/admin/gerenciar-usuarios", run: runAdminDeleteUser},
		{name: "admin-consultations", description: "List every consultation", route: "/admin/gerenciar-consultas", run: runAdminConsultations},
		{name: "admin-delete-consultation", description: "Delete a consultation", route: "/admin/gerenciar-consultas", run: runAdminDeleteConsultation},
		{name: "admin-specialties", description: "List specialties", route: "/admin/gerenciar-especialidades", run: runAdminSpecialties},
		{name: "admin-delete-specialty", description: "Delete a specialty", route: "/admin/gerenciar-especialidades", run: runAdminDeleteSpecialty},
		{name: "admin-reports", description: "List reports", route: "/admin/gerenciar-relatorios", run: runAdminReports},
		{name: "admin-delete-report", description: "Delete a report", route: "/admin/gerenciar-relatorios", run: runAdminDeleteReport},
	}
	out := make(map[string]command, len(list))
	for _, c := range list {
		out[c.name] = c
	}
	return out
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: medplus <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-26s %s\n", name, commands()[name].description); err != nil {
			return err
		}
	}
	return nil
}

// App builds the application on first use. Commands that never touch the
// session do not pay for it.
func (c *commandContext) App() (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := bootstrap.NewApp(c.Ctx, c.Config, c.Logger, consoleSink(c.Out))
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// guard applies the route guard of cmd against the restored session.
func (c *commandContext) guard(cmd command) error {
	if cmd.route == "" {
		return nil
	}
	app, err := c.App()
	if err != nil {
		return err
	}
	d := navigation.Decide(app.Session.Snapshot(), cmd.route)
	switch d.Outcome {
	case navigation.Allow:
		return nil
	case navigation.RedirectLogin, navigation.Wait:
		return errLoginRequired
	default:
		return errForbidden
	}
}

// consoleSink prints user notices the way the web front end shows toasts.
func consoleSink(w io.Writer) notify.Sink {
	return notify.SinkFunc(func(_ context.Context, n notify.Notice) error {
		return writef(w, "[%s] %s\n", n.Level, n.Message)
	})
}

// describeError renders err for the terminal, listing field errors when present.
func describeError(err error) string {
	if apperrors.IsAuth(err) {
		return "the server rejected your credentials; please log in again"
	}
	if apperrors.IsNetwork(err) {
		return fmt.Sprintf("could not reach the MedPlus API: %s", apperrors.UserMessage(err, "; "))
	}
	return apperrors.UserMessage(err, "; ")
}

func newFlagSet(name string, w io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(w)
	fs.SortFlags = false
	return fs
}
