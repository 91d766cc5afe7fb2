package model

import "strings"

// UserKind selects one of the admin user collections.
type UserKind string

const (
	UserKindPatients UserKind = "pacientes"
	UserKindDoctors  UserKind = "medicos"
	UserKindAdmins   UserKind = "administradores"
)

// Valid reports whether the kind is supported by the API.
func (k UserKind) Valid() bool {
	switch k {
	case UserKindPatients, UserKindDoctors, UserKindAdmins:
		return true
	default:
		return false
	}
}

// ParseUserKind normalizes a kind string and reports whether it is supported.
func ParseUserKind(value string) (UserKind, bool) {
	kind := UserKind(strings.ToLower(strings.TrimSpace(value)))
	if kind.Valid() {
		return kind, true
	}
	return "", false
}
