package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/medplus/medplus-client/internal/domain/model"
)

func runAdminStats(ctx *commandContext, args []string) error {
	fs := newFlagSet("admin-stats", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	stats, err := app.API.AdminDashboard(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, stats)
	}
	if err := writef(ctx.Out, "Users:          %d\nConsultations:  %d\nSpecialties:    %d\n",
		stats.Usuarios, stats.Consultas, stats.Especialidades); err != nil {
		return err
	}
	if len(stats.ConsultasMensais) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(stats.ConsultasMensais))
	for _, m := range stats.ConsultasMensais {
		rows = append(rows, []string{m.Mes, strconv.FormatInt(m.Quantidade, 10)})
	}
	return table(ctx.Out, "", []string{"MONTH", "CONSULTATIONS"}, rows)
}

func runAdminUsers(ctx *commandContext, args []string) error {
	fs := newFlagSet("admin-users", ctx.Err)
	kindFlag := fs.String("kind", string(model.UserKindPatients), "pacientes, medicos or administradores")
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, ok := model.ParseUserKind(*kindFlag)
	if !ok {
		return fmt.Errorf("unknown user kind %q", *kindFlag)
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	users, err := app.API.AdminListUsers(ctx.Ctx, kind)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, users)
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		status := "inactive"
		if u.Ativo {
			status = "active"
		}
		rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Nome, u.Email, status, orDash(u.CRM), orDash(model.FormatCPF(u.CPF))})
	}
	return table(ctx.Out, "No users found.", []string{"ID", "NAME", "EMAIL", "STATUS", "CRM", "CPF"}, rows)
}

func runAdminDeleteUser(ctx *commandContext, args []string) error {
	fs := newFlagSet("admin-delete-user", ctx.Err)
	kindFlag := fs.String("kind", "", "pacientes, medicos or administradores (required)")
	yes := fs.Bool("yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, ok := model.ParseUserKind(*kindFlag)
	if !ok {
		return fmt.Errorf("unknown user kind %q", *kindFlag)
	}
	id, err := parseID(fs.Args(), "user")
	if err != nil {
		return err
	}
	return deleteWithConfirm(ctx, *yes, fmt.Sprintf("user %d (%s)", id, kind), func(c context.Context) error {
		app, err := ctx.App()
		if err != nil {
			return err
		}
		return app.API.AdminDeleteUser(c, kind, id)
	})
}

func runAdminConsultations(ctx *commandContext, args []string) error {
	fs := newFlagSet("admin-consultations", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	status := fs.String("status", "", "Only show consultations with this status, e.g. AGENDADA")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	items, err := app.API.AdminListConsultations(ctx.Ctx)
	if err != nil {
		return err
	}
	if want := strings.ToUpper(strings.TrimSpace(*status)); want != "" {
		filtered := items[:0]
		for _, c := range items {
			if c.Status == want {
				filtered = append(filtered, c)
			}
		}
		items = filtered
	}
	if *asJSON {
		return writeJSON(ctx.Out, items)
	}
	return table(ctx.Out, "No consultations.", consultationHeader, consultationRows(items))
}

func runAdminDeleteConsultation(ctx *commandContext, args []string) error {
	return adminDelete(ctx, "admin-delete-consultation", "consultation", args, func(c context.Context, cmd *commandContext, id int64) error {
		a, err := cmd.App()
		if err != nil {
			return err
		}
		return a.API.AdminDeleteConsultation(c, id)
	})
}

func runAdminSpecialties(ctx *commandContext, args []string) error {
	fs := newFlagSet("admin-specialties", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	items, err := app.API.AdminListSpecialties(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, items)
	}
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		rows = append(rows, []string{strconv.FormatInt(s.ID, 10), s.Nome, orDash(s.Descricao)})
	}
	return table(ctx.Out, "No specialties.", []string{"ID", "NAME", "DESCRIPTION"}, rows)
}

func runAdminDeleteSpecialty(ctx *commandContext, args []string) error {
	return adminDelete(ctx, "admin-delete-specialty", "specialty", args, func(c context.Context, cmd *commandContext, id int64) error {
		a, err := cmd.App()
		if err != nil {
			return err
		}
		return a.API.AdminDeleteSpecialty(c, id)
	})
}

func runAdminReports(ctx *commandContext, args []string) error {
	fs := newFlagSet("admin-reports", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	items, err := app.API.AdminListReports(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, items)
	}
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Titulo, orDash(r.Data), orDash(r.Descricao)})
	}
	return table(ctx.Out, "No reports.", []string{"ID", "TITLE", "DATE", "DESCRIPTION"}, rows)
}

func runAdminDeleteReport(ctx *commandContext, args []string) error {
	return adminDelete(ctx, "admin-delete-report", "report", args, func(c context.Context, cmd *commandContext, id int64) error {
		a, err := cmd.App()
		if err != nil {
			return err
		}
		return a.API.AdminDeleteReport(c, id)
	})
}

// adminDelete parses "<id> [--yes]" and runs del after confirmation.
func adminDelete(
	ctx *commandContext,
	name, what string,
	args []string,
	del func(context.Context, *commandContext, int64) error,
) error {
	fs := newFlagSet(name, ctx.Err)
	yes := fs.Bool("yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), what)
	if err != nil {
		return err
	}
	return deleteWithConfirm(ctx, *yes, fmt.Sprintf("%s %d", what, id), func(c context.Context) error {
		return del(c, ctx, id)
	})
}

func deleteWithConfirm(ctx *commandContext, yes bool, target string, del func(context.Context) error) error {
	if !yes {
		if err := confirm(ctx.In, ctx.Out, "Delete "+target+"?"); err != nil {
			return err
		}
	}
	if err := del(ctx.Ctx); err != nil {
		return err
	}
	return writef(ctx.Out, "Deleted %s.\n", target)
}
