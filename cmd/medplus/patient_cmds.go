package main

import (
	"errors"
	"strconv"

	"github.com/medplus/medplus-client/internal/domain/model"
)

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one " + what + " id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + what + " id: " + args[0])
	}
	return id, nil
}

func consultationRows(items []model.Consultation) [][]string {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.DataHora,
			c.Status,
			orDash(c.MedicoNome),
			orDash(c.PacienteNome),
			orDash(c.Observacoes),
		})
	}
	return rows
}

var consultationHeader = []string{"ID", "DATE", "STATUS", "DOCTOR", "PATIENT", "NOTES"}

func runDoctors(ctx *commandContext, args []string) error {
	fs := newFlagSet("doctors", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	doctors, err := app.API.ListDoctors(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, doctors)
	}
	rows := make([][]string, 0, len(doctors))
	for _, d := range doctors {
		rows = append(rows, []string{strconv.FormatInt(d.ID, 10), d.Nome, orDash(d.Especialidade), orDash(d.CRM)})
	}
	return table(ctx.Out, "No doctors available.", []string{"ID", "NAME", "SPECIALTY", "CRM"}, rows)
}

func runBook(ctx *commandContext, args []string) error {
	fs := newFlagSet("book", ctx.Err)
	var req model.ScheduleRequest
	fs.Int64Var(&req.MedicoID, "doctor", 0, "Doctor id (required)")
	fs.StringVar(&req.DataHora, "at", "", "Date and time, e.g. 2025-03-01T14:30 (required)")
	fs.StringVar(&req.Observacoes, "notes", "", "Notes for the doctor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	if err := app.API.ScheduleConsultation(ctx.Ctx, req); err != nil {
		return err
	}
	return writeln(ctx.Out, "Consultation booked.")
}

func runConsultations(ctx *commandContext, args []string) error {
	fs := newFlagSet("consultations", ctx.Err)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	items, err := app.API.MyConsultations(ctx.Ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(ctx.Out, items)
	}
	return table(ctx.Out, "No consultations.", consultationHeader, consultationRows(items))
}

func runCancel(ctx *commandContext, args []string) error {
	fs := newFlagSet("cancel", ctx.Err)
	reason := fs.String("reason", "", "Cancellation reason")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "consultation")
	if err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	if err := app.API.CancelConsultation(ctx.Ctx, id, *reason); err != nil {
		return err
	}
	return writef(ctx.Out, "Consultation %d cancelled.\n", id)
}

func runReschedule(ctx *commandContext, args []string) error {
	fs := newFlagSet("reschedule", ctx.Err)
	var req model.RescheduleRequest
	fs.StringVar(&req.NovaDataHora, "at", "", "New date and time (required)")
	fs.StringVar(&req.Observacoes, "notes", "", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "consultation")
	if err != nil {
		return err
	}
	app, err := ctx.App()
	if err != nil {
		return err
	}
	current, err := app.API.GetConsultation(ctx.Ctx, id)
	if err != nil {
		return err
	}
	if err := app.API.RescheduleConsultation(ctx.Ctx, id, req); err != nil {
		return err
	}
	return writef(ctx.Out, "Consultation %d moved from %s to %s.\n", id, orDash(current.DataHora), req.NovaDataHora)
}
