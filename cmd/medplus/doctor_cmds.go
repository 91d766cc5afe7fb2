package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/medplus/medplus-client/internal/bootstrap"
	"github.com/medplus/medplus-client/internal/domain/auth"
	"github.com/medplus/medplus-client/internal/domain/model"
	apperrors "github.com/medplus/medplus-client/internal/errors"
	"github.com/medplus/medplus-client/internal/service"
)

func runAgenda(ctx *commandContext, args []string) error {
	fs := newFlagSet("agenda", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	items, err := app.API.DoctorSchedule(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, items)
	}
	return table(ctx.Out, "Agenda is empty.", consultationHeader, consultationRows(items))
}

func runPatients(ctx *commandContext, args []string) error {
	fs := newFlagSet("patients", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	patients, err := app.API.DoctorPatients(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, patients)
	}
	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Nome, orDash(p.Email), orDash(model.FormatPhone(p.Telefone))})
	}
	return table(ctx.Out, "No patients yet.", []string{"ID", "NAME", "EMAIL", "PHONE"}, rows)
}

type dashboardOptions struct {
	Interval time.Duration
	Once     bool
	Updates  int
	JSON     bool
}

func parseDashboardFlags(ctx *commandContext, args []string) (dashboardOptions, error) {
	fs := newFlagSet("dashboard", ctx.Err)
	opts := dashboardOptions{Interval: ctx.Config.Session.RefreshInterval}
	fs.DurationVar(&opts.Interval, "interval", opts.Interval, "Background refresh period")
	fs.BoolVar(&opts.Once, "once", false, "Fetch once and exit")
	fs.IntVar(&opts.Updates, "updates", 0, "Exit after this many refreshes (0 = until interrupted)")
	fs.BoolVar(&opts.JSON, "json", false, "Print each refresh as JSON")
	if err := fs.Parse(args); err != nil {
		return dashboardOptions{}, err
	}
	if opts.Interval < time.Second {
		return dashboardOptions{}, errors.New("--interval must be at least 1s")
	}
	if opts.Updates < 0 {
		return dashboardOptions{}, errors.New("--updates must not be negative")
	}
	if opts.Once {
		opts.Updates = 1
	}
	return opts, nil
}

func runDashboard(ctx *commandContext, args []string) error {
	opts, err := parseDashboardFlags(ctx, args)
	if err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}

	if opts.Once {
		dash, err := app.API.DoctorDashboard(ctx.Ctx)
		if err != nil {
			return err
		}
		return renderDashboard(ctx, opts, service.View[model.DoctorDashboard]{Data: dash, Loaded: true, UpdatedAt: time.Now()})
	}

	r, err := bootstrap.NewRefresher[model.DoctorDashboard](app, "painel do médico", opts.Interval, app.API.DoctorDashboard)
	if err != nil {
		return err
	}

	signedOut := make(chan struct{}, 1)
	unsubscribe := app.Session.Subscribe(func(id auth.Identity) {
		if !id.IsAuthenticated {
			select {
			case signedOut <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	h := r.Start(ctx.Ctx)
	defer h.Cancel()

	rendered := 0
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		case <-signedOut:
			return errLoginRequired
		case v := <-r.Updates():
			if v.Refreshing {
				continue
			}
			if err := renderDashboard(ctx, opts, v); err != nil {
				return err
			}
			rendered++
			if opts.Updates > 0 && rendered >= opts.Updates {
				return nil
			}
		}
	}
}

func renderDashboard(ctx *commandContext, opts dashboardOptions, v service.View[model.DoctorDashboard]) error {
	if opts.JSON {
		payload := map[string]any{"loaded": v.Loaded, "data": v.Data, "updatedAt": v.UpdatedAt}
		if v.LastErr != nil {
			payload["error"] = apperrors.UserMessage(v.LastErr, "; ")
		}
		return writeJSON(ctx.Out, payload)
	}
	if !v.Loaded {
		return writef(ctx.Out, "Dashboard unavailable: %s\n", describeError(v.LastErr))
	}
	if err := writef(ctx.Out, "\n== Doctor dashboard (%s) ==\nConsultations today: %d\nPatients today:      %d\n",
		v.UpdatedAt.Format("15:04:05"), v.Data.ConsultasHoje, v.Data.PacientesDoDia); err != nil {
		return err
	}
	if v.LastErr != nil {
		if err := writef(ctx.Out, "(last refresh failed: %s)\n", describeError(v.LastErr)); err != nil {
			return err
		}
	}
	return table(ctx.Out, "No upcoming consultations.", consultationHeader, consultationRows(v.Data.ProximasConsultas))
}
