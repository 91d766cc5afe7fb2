package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/medplus/medplus-client/internal/domain/auth"
	"github.com/medplus/medplus-client/internal/domain/model"
	"github.com/medplus/medplus-client/internal/navigation"
)

type loginOptions struct {
	Email         string
	Password      string
	PasswordStdin bool
}

func parseLoginFlags(ctx *commandContext, args []string) (loginOptions, error) {
	fs := newFlagSet("login", ctx.Err)
	var opts loginOptions
	fs.StringVarP(&opts.Email, "email", "e", "", "Account email (required)")
	fs.StringVarP(&opts.Password, "password", "p", "", "Account password")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from stdin")
	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return loginOptions{}, errors.New("--email is required")
	}
	if opts.PasswordStdin {
		if opts.Password != "" {
			return loginOptions{}, errors.New("--password and --password-stdin are mutually exclusive")
		}
		line, err := bufio.NewReader(ctx.In).ReadString('\n')
		if err != nil && line == "" {
			return loginOptions{}, fmt.Errorf("read password: %w", err)
		}
		opts.Password = strings.TrimRight(line, "\r\n")
	}
	if opts.Password == "" {
		return loginOptions{}, errors.New("a password is required (--password or --password-stdin)")
	}
	return opts, nil
}

func runLogin(ctx *commandContext, args []string) error {
	opts, err := parseLoginFlags(ctx, args)
	if err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	id, err := app.Session.Login(ctx.Ctx, opts.Email, opts.Password)
	if err != nil {
		return err
	}
	return writef(ctx.Out, "Signed in as %s. Home: %s\n", id.SubjectEmail, auth.HomePath(id))
}

func runLogout(ctx *commandContext, _ []string) error {
	app, err := ctx.App()
	if err != nil {
		return err
	}
	wasSignedIn := app.Session.Identity().IsAuthenticated
	if err := app.Session.Logout(ctx.Ctx); err != nil {
		return err
	}
	if !wasSignedIn {
		return writeln(ctx.Out, "No active session.")
	}
	return nil
}

func runWhoami(ctx *commandContext, args []string) error {
	fs := newFlagSet("whoami", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	snap := app.Session.Snapshot()
	id := snap.Identity
	caps := auth.CapabilitiesOf(id)
	roles := make([]string, 0, id.Roles.Len())
	for _, r := range id.Roles.Sorted() {
		roles = append(roles, string(r))
	}

	if *asJSON {
		return writeJSON(ctx.Out, map[string]any{
			"state":         snap.State.String(),
			"authenticated": id.IsAuthenticated,
			"email":         id.SubjectEmail,
			"userId":        id.UserID,
			"roles":         roles,
			"home":          auth.HomePath(id),
			"isAdmin":       caps.IsAdmin,
			"isDoctor":      caps.IsDoctor,
			"isPatient":     caps.IsPatient,
		})
	}
	if !id.IsAuthenticated {
		return writef(ctx.Out, "Not signed in (state: %s)\n", snap.State)
	}
	return writef(ctx.Out, "Email:   %s\nUser ID: %d\nRoles:   %s\nHome:    %s\n",
		id.SubjectEmail, id.UserID, orDash(strings.Join(roles, ", ")), auth.HomePath(id))
}

type registerOptions struct {
	Registration model.PatientRegistration
	Address      model.Address
}

func parseRegisterFlags(ctx *commandContext, args []string) (model.PatientRegistration, error) {
	fs := newFlagSet("register", ctx.Err)
	var opts registerOptions
	reg := &opts.Registration
	fs.StringVar(&reg.Nome, "name", "", "Full name (required)")
	fs.StringVar(&reg.Email, "email", "", "Email (required)")
	fs.StringVar(&reg.Senha, "password", "", "Password (required)")
	fs.StringVar(&reg.CPF, "cpf", "", "CPF, formatted or digits only (required)")
	fs.StringVar(&reg.Telefone, "phone", "", "Phone number")
	fs.StringVar(&reg.DataNascimento, "birth-date", "", "Birth date (YYYY-MM-DD)")
	fs.StringVar(&opts.Address.CEP, "cep", "", "Postal code")
	fs.StringVar(&opts.Address.Logradouro, "street", "", "Street")
	fs.StringVar(&opts.Address.Numero, "number", "", "Street number")
	fs.StringVar(&opts.Address.Complemento, "complement", "", "Address complement")
	fs.StringVar(&opts.Address.Bairro, "district", "", "District")
	fs.StringVar(&opts.Address.Cidade, "city", "", "City")
	fs.StringVar(&opts.Address.UF, "state", "", "State (UF)")
	if err := fs.Parse(args); err != nil {
		return model.PatientRegistration{}, err
	}
	if opts.Address != (model.Address{}) {
		addr := opts.Address
		reg.Endereco = &addr
	}
	return *reg, nil
}

func runRegister(ctx *commandContext, args []string) error {
	reg, err := parseRegisterFlags(ctx, args)
	if err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	patient, err := app.Session.RegisterPatient(ctx.Ctx, reg)
	if err != nil {
		return err
	}
	if patient.ID != 0 {
		return writef(ctx.Out, "Patient %s registered (id %d). You can now log in.\n", orDash(patient.Nome), patient.ID)
	}
	return writeln(ctx.Out, "Patient registered. You can now log in.")
}

func runCan(ctx *commandContext, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: medplus can <path>")
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	d := navigation.Decide(app.Session.Snapshot(), args[0])
	if d.Target == "" {
		return writeln(ctx.Out, d.Outcome.String())
	}
	return writef(ctx.Out, "%s %s\n", d.Outcome, d.Target)
}
