package model

// Wire records exchanged with the remote clinic API. JSON field names follow
// what the API emits, so they stay in Portuguese.

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// LoginResponse carries the issued credential.
type LoginResponse struct {
	Token string `json:"token"`
}

// Address is a postal address as stored on patient profiles.
type Address struct {
	Logradouro  string `json:"logradouro,omitempty"`
	Numero      string `json:"numero,omitempty"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro,omitempty"`
	Cidade      string `json:"cidade,omitempty"`
	UF          string `json:"uf,omitempty"`
	CEP         string `json:"cep,omitempty"`
}

// PatientRegistration is the body of POST /auth/registrar/paciente.
type PatientRegistration struct {
	Nome           string   `json:"nome"`
	Email          string   `json:"email"`
	Senha          string   `json:"senha"`
	CPF            string   `json:"cpf"`
	Telefone       string   `json:"telefone,omitempty"`
	DataNascimento string   `json:"dataNascimento,omitempty"`
	Endereco       *Address `json:"endereco,omitempty"`
}

// Normalize strips formatting from CPF and phone so the API receives digits only.
func (r PatientRegistration) Normalize() PatientRegistration {
	r.CPF = DigitsOnly(r.CPF)
	r.Telefone = DigitsOnly(r.Telefone)
	if r.Endereco != nil {
		addr := *r.Endereco
		addr.CEP = DigitsOnly(addr.CEP)
		r.Endereco = &addr
	}
	return r
}

// Patient is a registered patient record.
type Patient struct {
	ID       int64  `json:"id"`
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	CPF      string `json:"cpf,omitempty"`
	Telefone string `json:"telefone,omitempty"`
}

// Doctor is a bookable physician.
type Doctor struct {
	ID            int64  `json:"id"`
	Nome          string `json:"nome"`
	Especialidade string `json:"especialidade"`
	CRM           string `json:"crm,omitempty"`
}

// Consultation statuses reported by the API.
const (
	StatusScheduled   = "AGENDADA"
	StatusConfirmed   = "CONFIRMADA"
	StatusCompleted   = "REALIZADA"
	StatusCanceled    = "CANCELADA"
	StatusRescheduled = "REAGENDADA"
)

// Consultation is an appointment between a patient and a doctor.
type Consultation struct {
	ID                  int64  `json:"id"`
	Status              string `json:"status"`
	DataHora            string `json:"dataHora"`
	PacienteNome        string `json:"pacienteNome,omitempty"`
	MedicoNome          string `json:"medicoNome,omitempty"`
	EspecialidadeMedico string `json:"especialidadeMedico,omitempty"`
	Observacoes         string `json:"observacoes,omitempty"`
	MotivoCancelamento  string `json:"motivoCancelamento,omitempty"`
}

// ScheduleRequest is the body of POST /consultas/agendar.
// DataHora uses the API's local ISO format without zone, e.g. 2025-03-01T14:30.
type ScheduleRequest struct {
	MedicoID    int64  `json:"medicoId"`
	DataHora    string `json:"dataHora"`
	Observacoes string `json:"observacoes,omitempty"`
}

// RescheduleRequest is the body of PATCH /consultas/{id}/reagendar.
type RescheduleRequest struct {
	NovaDataHora string `json:"novaDataHora"`
	Observacoes  string `json:"observacoes,omitempty"`
}

// DoctorDashboard holds the aggregates polled on the doctor home page.
type DoctorDashboard struct {
	ConsultasHoje     int64          `json:"consultasHoje"`
	PacientesDoDia    int64          `json:"pacientesDoDia"`
	ProximasConsultas []Consultation `json:"proximasConsultas"`
}

// Profile is the signed-in user's own record.
type Profile struct {
	ID             int64    `json:"id"`
	Nome           string   `json:"nome"`
	Email          string   `json:"email"`
	CPF            string   `json:"cpf,omitempty"`
	Telefone       string   `json:"telefone,omitempty"`
	DataNascimento string   `json:"dataNascimento,omitempty"`
	DataCadastro   string   `json:"dataCadastro,omitempty"`
	CRM            string   `json:"crm,omitempty"`
	AvatarURL      string   `json:"avatarUrl,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	Endereco       *Address `json:"endereco,omitempty"`
}

// ProfileUpdate is the body of PUT /perfil. Nil fields are left untouched by the API.
type ProfileUpdate struct {
	Nome           *string  `json:"nome,omitempty"`
	Telefone       *string  `json:"telefone,omitempty"`
	DataNascimento *string  `json:"dataNascimento,omitempty"`
	Endereco       *Address `json:"endereco,omitempty"`
}

// Normalize strips phone and postal code formatting.
func (u ProfileUpdate) Normalize() ProfileUpdate {
	if u.Telefone != nil {
		digits := DigitsOnly(*u.Telefone)
		u.Telefone = &digits
	}
	if u.Endereco != nil {
		addr := *u.Endereco
		addr.CEP = DigitsOnly(addr.CEP)
		u.Endereco = &addr
	}
	return u
}

// MonthlyCount is one bar of the admin consultations chart.
type MonthlyCount struct {
	Mes        string `json:"mes"`
	Quantidade int64  `json:"quantidade"`
}

// AdminStats holds the admin dashboard totals.
type AdminStats struct {
	Usuarios         int64          `json:"usuarios"`
	Consultas        int64          `json:"consultas"`
	Especialidades   int64          `json:"especialidades"`
	ConsultasMensais []MonthlyCount `json:"consultasMensais,omitempty"`
}

// User is a row of the admin user listing.
type User struct {
	ID    int64    `json:"id"`
	Nome  string   `json:"nome"`
	Email string   `json:"email"`
	Ativo bool     `json:"ativo"`
	CRM   string   `json:"crm,omitempty"`
	CPF   string   `json:"cpf,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Specialty is a medical specialty managed by admins.
type Specialty struct {
	ID        int64  `json:"id"`
	Nome      string `json:"nome"`
	Descricao string `json:"descricao,omitempty"`
}

// Report is an administrative report entry.
type Report struct {
	ID        int64  `json:"id"`
	Titulo    string `json:"titulo"`
	Descricao string `json:"descricao,omitempty"`
	Data      string `json:"data,omitempty"`
}
