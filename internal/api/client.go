package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/medplus/medplus-client/internal/domain/model"
	apperrors "github.com/medplus/medplus-client/internal/errors"
	"github.com/medplus/medplus-client/internal/gateway"
)

// DefaultCancelReason is sent when a patient cancels without giving a reason.
const DefaultCancelReason = "Cancelamento pelo paciente"

// Options groups dependencies for Client.
type Options struct {
	Requester gateway.Requester
	// BaseURL resolves relative avatar paths. Optional.
	BaseURL *url.URL
	Logger  *slog.Logger
}

// Client exposes the remote clinic API as typed methods. Errors from the
// gateway are returned unchanged.
type Client struct {
	r      gateway.Requester
	base   *url.URL
	logger *slog.Logger
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if opts.Requester == nil {
		return nil, errors.New("requester is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		r:      opts.Requester,
		base:   opts.BaseURL,
		logger: logger.With("component", "api"),
	}, nil
}

func (c *Client) call(ctx context.Context, ep Endpoint, req gateway.Request, out any, args ...string) error {
	path, err := ep.Path(args...)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request path")
	}
	req.Method = ep.Method
	req.Path = path
	if err := gateway.DoJSON(ctx, c.r, req, out); err != nil {
		c.logger.DebugContext(ctx, "api call failed", "endpoint", ep.Name, "error", err)
		return err
	}
	return nil
}

func list[T any](ctx context.Context, c *Client, ep Endpoint, args ...string) ([]T, error) {
	var out []T
	if err := c.call(ctx, ep, gateway.Request{}, &out, args...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func requireID(v int64) error {
	if v <= 0 {
		return apperrors.ValidationField("id", "id must be positive")
	}
	return nil
}

// ListDoctors returns the bookable doctors.
func (c *Client) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	return list[model.Doctor](ctx, c, EndpointListDoctors)
}

// ScheduleConsultation books a consultation for the signed-in patient.
func (c *Client) ScheduleConsultation(ctx context.Context, req model.ScheduleRequest) error {
	if req.MedicoID <= 0 {
		return apperrors.ValidationField("medicoId", "doctor is required")
	}
	if strings.TrimSpace(req.DataHora) == "" {
		return apperrors.ValidationField("dataHora", "date and time are required")
	}
	return c.call(ctx, EndpointSchedule, gateway.Request{Body: req}, nil)
}

// MyConsultations lists the signed-in patient's consultations.
func (c *Client) MyConsultations(ctx context.Context) ([]model.Consultation, error) {
	return list[model.Consultation](ctx, c, EndpointMyConsultations)
}

// CancelConsultation cancels one of the patient's consultations. An empty
// reason is replaced with DefaultCancelReason.
func (c *Client) CancelConsultation(ctx context.Context, consultationID int64, reason string) error {
	if err := requireID(consultationID); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}
	req := gateway.Request{Query: url.Values{"motivo": {reason}}}
	return c.call(ctx, EndpointCancel, req, nil, id(consultationID))
}

func (c *Client) GetConsultation(ctx context.Context, consultationID int64) (model.Consultation, error) {
	var out model.Consultation
	if err := requireID(consultationID); err != nil {
		return out, err
	}
	err := c.call(ctx, EndpointGetConsultation, gateway.Request{}, &out, id(consultationID))
	return out, err
}

// RescheduleConsultation moves a consultation to a new date and time.
func (c *Client) RescheduleConsultation(ctx context.Context, consultationID int64, req model.RescheduleRequest) error {
	if err := requireID(consultationID); err != nil {
		return err
	}
	if strings.TrimSpace(req.NovaDataHora) == "" {
		return apperrors.ValidationField("novaDataHora", "new date and time are required")
	}
	return c.call(ctx, EndpointReschedule, gateway.Request{Body: req}, nil, id(consultationID))
}

// DoctorSchedule lists the signed-in doctor's agenda.
func (c *Client) DoctorSchedule(ctx context.Context) ([]model.Consultation, error) {
	return list[model.Consultation](ctx, c, EndpointDoctorSchedule)
}

func (c *Client) DoctorPatients(ctx context.Context) ([]model.Patient, error) {
	return list[model.Patient](ctx, c, EndpointDoctorPatients)
}

// DoctorDashboard fetches the aggregates shown on the doctor home page.
func (c *Client) DoctorDashboard(ctx context.Context) (model.DoctorDashboard, error) {
	var out model.DoctorDashboard
	err := c.call(ctx, EndpointDoctorDashboard, gateway.Request{}, &out)
	return out, err
}

func (c *Client) GetProfile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	err := c.call(ctx, EndpointGetProfile, gateway.Request{}, &out)
	return out, err
}

// UpdateProfile submits profile changes with phone and postal code reduced to digits.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) error {
	return c.call(ctx, EndpointUpdateProfile, gateway.Request{Body: update.Normalize()}, nil)
}

// UploadAvatar replaces the profile picture. Only image content is accepted;
// an empty contentType is inferred from the file name.
func (c *Client) UploadAvatar(ctx context.Context, fileName, contentType string, content io.Reader) error {
	if content == nil {
		return apperrors.ValidationField("avatar", "file is required")
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return apperrors.ValidationField("avatar", "avatar must be an image file")
	}
	req := gateway.Request{Multipart: &gateway.File{
		Field:       "avatar",
		FileName:    filepath.Base(fileName),
		ContentType: mediaType,
		Content:     content,
	}}
	return c.call(ctx, EndpointUploadAvatar, req, nil)
}

// DeleteProfile removes the signed-in user's account. Callers should log out afterwards.
func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.call(ctx, EndpointDeleteProfile, gateway.Request{}, nil)
}

// AvatarURL resolves the profile's avatar against the base endpoint.
// Absolute URLs are returned as is; an empty avatar yields "".
func (c *Client) AvatarURL(p model.Profile) string {
	raw := strings.TrimSpace(p.AvatarURL)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() || c.base == nil {
		return ref.String()
	}
	return c.base.JoinPath(ref.Path).String()
}

func (c *Client) AdminDashboard(ctx context.Context) (model.AdminStats, error) {
	var out model.AdminStats
	err := c.call(ctx, EndpointAdminDashboard, gateway.Request{}, &out)
	return out, err
}

// AdminListUsers lists one user collection.
func (c *Client) AdminListUsers(ctx context.Context, kind model.UserKind) ([]model.User, error) {
	if !kind.Valid() {
		return nil, apperrors.ValidationField("tipo", "unknown user kind")
	}
	return list[model.User](ctx, c, EndpointAdminUsers, string(kind))
}

func (c *Client) AdminDeleteUser(ctx context.Context, kind model.UserKind, userID int64) error {
	if !kind.Valid() {
		return apperrors.ValidationField("tipo", "unknown user kind")
	}
	if err := requireID(userID); err != nil {
		return err
	}
	return c.call(ctx, EndpointAdminDeleteUser, gateway.Request{}, nil, string(kind), id(userID))
}

func (c *Client) AdminListConsultations(ctx context.Context) ([]model.Consultation, error) {
	return list[model.Consultation](ctx, c, EndpointAdminConsults)
}

func (c *Client) AdminDeleteConsultation(ctx context.Context, consultationID int64) error {
	if err := requireID(consultationID); err != nil {
		return err
	}
	return c.call(ctx, EndpointAdminDelConsult, gateway.Request{}, nil, id(consultationID))
}

func (c *Client) AdminListSpecialties(ctx context.Context) ([]model.Specialty, error) {
	return list[model.Specialty](ctx, c, EndpointAdminSpecialties)
}

func (c *Client) AdminDeleteSpecialty(ctx context.Context, specialtyID int64) error {
	if err := requireID(specialtyID); err != nil {
		return err
	}
	return c.call(ctx, EndpointAdminDelSpecialty, gateway.Request{}, nil, id(specialtyID))
}

func (c *Client) AdminListReports(ctx context.Context) ([]model.Report, error) {
	return list[model.Report](ctx, c, EndpointAdminReports)
}

func (c *Client) AdminDeleteReport(ctx context.Context, reportID int64) error {
	if err := requireID(reportID); err != nil {
		return err
	}
	return c.call(ctx, EndpointAdminDelReport, gateway.Request{}, nil, id(reportID))
}
