package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/medplus/medplus-client/internal/domain/auth"
	"github.com/medplus/medplus-client/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

func runProfile(ctx *commandContext, args []string) error {
	fs := newFlagSet("profile", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	p, err := app.API.GetProfile(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, p)
	}
	return printProfile(ctx, p, app.API.AvatarURL(p))
}

func printProfile(ctx *commandContext, p model.Profile, avatar string) error {
	lines := []struct{ label, value string }{
		{"Name", p.Nome},
		{"Email", p.Email},
		{"CPF", model.FormatCPF(p.CPF)},
		{"Phone", model.FormatPhone(p.Telefone)},
		{"Birth date", p.DataNascimento},
		{"CRM", p.CRM},
		{"Member since", p.DataCadastro},
		{"Avatar", avatar},
	}
	if p.Endereco != nil {
		a := p.Endereco
		street := strings.TrimSpace(strings.Join([]string{a.Logradouro, a.Numero, a.Complemento}, " "))
		lines = append(lines, struct{ label, value string }{"Address", strings.TrimSpace(fmt.Sprintf("%s, %s - %s/%s %s", street, a.Bairro, a.Cidade, a.UF, a.CEP))})
	}
	for _, l := range lines {
		if err := writef(ctx.Out, "%-13s %s\n", l.label+":", orDash(l.value)); err != nil {
			return err
		}
	}
	return nil
}

func runProfileUpdate(ctx *commandContext, args []string) error {
	fs := newFlagSet("profile-update", ctx.Err)
	name := fs.String("name", "", "New name")
	phone := fs.String("phone", "", "New phone number")
	birth := fs.String("birth-date", "", "New birth date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var update model.ProfileUpdate
	if fs.Changed("name") {
		update.Nome = name
	}
	if fs.Changed("phone") {
		update.Telefone = phone
	}
	if fs.Changed("birth-date") {
		update.DataNascimento = birth
	}
	if update == (model.ProfileUpdate{}) {
		return errors.New("nothing to update: pass --name, --phone or --birth-date")
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	if err := app.API.UpdateProfile(ctx.Ctx, update); err != nil {
		return err
	}
	return writeln(ctx.Out, "Profile updated.")
}

func runAvatar(ctx *commandContext, args []string) error {
	fs := newFlagSet("avatar", ctx.Err)
	contentType := fs.String("content-type", "", "Override the detected image type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: medplus avatar <image-file>")
	}
	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open avatar: %w", err)
	}
	defer f.Close()

	app, err := ctx.App()
	if err != nil {
		return err
	}
	if err := app.API.UploadAvatar(ctx.Ctx, path, *contentType, f); err != nil {
		return err
	}
	return writeln(ctx.Out, "Avatar updated.")
}

func runDeleteAccount(ctx *commandContext, args []string) error {
	fs := newFlagSet("delete-account", ctx.Err)
	yes := fs.Bool("yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		if err := confirm(ctx.In, ctx.Out, "Delete your account permanently?"); err != nil {
			return err
		}
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	if err := app.API.DeleteProfile(ctx.Ctx); err != nil {
		return err
	}
	if err := app.Session.Logout(ctx.Ctx); err != nil {
		return err
	}
	return writeln(ctx.Out, "Account deleted.")
}

// overview holds whatever the signed-in roles can see, fetched concurrently.
type overview struct {
	Profile       model.Profile          `json:"profile"`
	Consultations []model.Consultation   `json:"consultations,omitempty"`
	Dashboard     *model.DoctorDashboard `json:"dashboard,omitempty"`
	Stats         *model.AdminStats      `json:"stats,omitempty"`
}

func runOverview(ctx *commandContext, args []string) error {
	fs := newFlagSet("overview", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	caps := auth.CapabilitiesOf(app.Session.Identity())

	var out overview
	g, gctx := errgroup.WithContext(ctx.Ctx)
	g.Go(func() error {
		p, err := app.API.GetProfile(gctx)
		out.Profile = p
		return err
	})
	if caps.IsPatient {
		g.Go(func() error {
			items, err := app.API.MyConsultations(gctx)
			out.Consultations = items
			return err
		})
	}
	if caps.IsDoctor {
		g.Go(func() error {
			dash, err := app.API.DoctorDashboard(gctx)
			if err == nil {
				out.Dashboard = &dash
			}
			return err
		})
	}
	if caps.IsAdmin {
		g.Go(func() error {
			stats, err := app.API.AdminDashboard(gctx)
			if err == nil {
				out.Stats = &stats
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return renderOverview(ctx, out, *asJSON)
}

func renderOverview(ctx *commandContext, out overview, asJSON bool) error {
	if asJSON {
		return writeJSON(ctx.Out, out)
	}
	if err := writef(ctx.Out, "%s <%s>\n", orDash(out.Profile.Nome), orDash(out.Profile.Email)); err != nil {
		return err
	}
	if out.Consultations != nil {
		if err := writef(ctx.Out, "Consultations: %d\n", len(out.Consultations)); err != nil {
			return err
		}
	}
	if out.Dashboard != nil {
		if err := writef(ctx.Out, "Today: %d consultations, %d patients\n", out.Dashboard.ConsultasHoje, out.Dashboard.PacientesDoDia); err != nil {
			return err
		}
	}
	if out.Stats != nil {
		if err := writef(ctx.Out, "Users: %d  Consultations: %d  Specialties: %d\n",
			out.Stats.Usuarios, out.Stats.Consultas, out.Stats.Especialidades); err != nil {
			return err
		}
	}
	return nil
}
