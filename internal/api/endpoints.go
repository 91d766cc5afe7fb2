// Package api is the typed catalogue of remote clinic endpoints. Every call
// goes through a gateway.Requester, so credentials and error mapping stay in
// one place.
package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Endpoint describes one remote operation. Placeholders in PathTemplate are
// written as {name} and filled in order by Path.
type Endpoint struct {
	Name         string
	Method       string
	PathTemplate string
}

// Path substitutes args into the template placeholders, escaping each one.
func (e Endpoint) Path(args ...string) (string, error) {
	var (
		b    strings.Builder
		rest = e.PathTemplate
		used int
	)
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("endpoint %s: unterminated placeholder", e.Name)
		}
		if used >= len(args) {
			return "", fmt.Errorf("endpoint %s: missing value for %s", e.Name, rest[open:open+end+1])
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(args[used]))
		used++
		rest = rest[open+end+1:]
	}
	if used != len(args) {
		return "", fmt.Errorf("endpoint %s: %d values for %d placeholders", e.Name, len(args), used)
	}
	return b.String(), nil
}

var (
	EndpointLogin             = Endpoint{"login", http.MethodPost, "/auth/login"}
	EndpointRegisterPatient   = Endpoint{"register_patient", http.MethodPost, "/auth/registrar/paciente"}
	EndpointListDoctors       = Endpoint{"list_doctors", http.MethodGet, "/medicos"}
	EndpointSchedule          = Endpoint{"schedule_consultation", http.MethodPost, "/consultas/agendar"}
	EndpointMyConsultations   = Endpoint{"my_consultations", http.MethodGet, "/pacientes/minhas-consultas"}
	EndpointCancel            = Endpoint{"cancel_consultation", http.MethodPatch, "/pacientes/consultas/{id}/cancelar"}
	EndpointGetConsultation   = Endpoint{"get_consultation", http.MethodGet, "/consultas/{id}"}
	EndpointReschedule        = Endpoint{"reschedule_consultation", http.MethodPatch, "/consultas/{id}/reagendar"}
	EndpointDoctorSchedule    = Endpoint{"doctor_schedule", http.MethodGet, "/medicos/minha-agenda"}
	EndpointDoctorPatients    = Endpoint{"doctor_patients", http.MethodGet, "/medicos/meus-pacientes"}
	EndpointDoctorDashboard   = Endpoint{"doctor_dashboard", http.MethodGet, "/medicos/dashboard"}
	EndpointGetProfile        = Endpoint{"get_profile", http.MethodGet, "/perfil"}
	EndpointUpdateProfile     = Endpoint{"update_profile", http.MethodPut, "/perfil"}
	EndpointUploadAvatar      = Endpoint{"upload_avatar", http.MethodPut, "/perfil/avatar"}
	EndpointDeleteProfile     = Endpoint{"delete_profile", http.MethodDelete, "/perfil"}
	EndpointAdminDashboard    = Endpoint{"admin_dashboard", http.MethodGet, "/admin/dashboard"}
	EndpointAdminUsers        = Endpoint{"admin_list_users", http.MethodGet, "/admin/usuarios/{kind}"}
	EndpointAdminDeleteUser   = Endpoint{"admin_delete_user", http.MethodDelete, "/admin/usuarios/{kind}/{id}"}
	EndpointAdminConsults     = Endpoint{"admin_list_consultations", http.MethodGet, "/admin/consultas"}
	EndpointAdminDelConsult   = Endpoint{"admin_delete_consultation", http.MethodDelete, "/admin/consultas/{id}"}
	EndpointAdminSpecialties  = Endpoint{"admin_list_specialties", http.MethodGet, "/admin/especialidades"}
	EndpointAdminDelSpecialty = Endpoint{"admin_delete_specialty", http.MethodDelete, "/admin/especialidades/{id}"}
	EndpointAdminReports      = Endpoint{"admin_list_reports", http.MethodGet, "/admin/relatorios"}
	EndpointAdminDelReport    = Endpoint{"admin_delete_report", http.MethodDelete, "/admin/relatorios/{id}"}
)

// Endpoints lists every known endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointLogin, EndpointRegisterPatient,
		EndpointListDoctors, EndpointSchedule, EndpointMyConsultations, EndpointCancel,
		EndpointGetConsultation, EndpointReschedule,
		EndpointDoctorSchedule, EndpointDoctorPatients, EndpointDoctorDashboard,
		EndpointGetProfile, EndpointUpdateProfile, EndpointUploadAvatar, EndpointDeleteProfile,
		EndpointAdminDashboard, EndpointAdminUsers, EndpointAdminDeleteUser,
		EndpointAdminConsults, EndpointAdminDelConsult,
		EndpointAdminSpecialties, EndpointAdminDelSpecialty,
		EndpointAdminReports, EndpointAdminDelReport,
	}
}
