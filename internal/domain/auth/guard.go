package auth

// IsAllowed decides whether id satisfies the capability requirement.
// Unauthenticated identities never pass. An empty requirement admits any
// authenticated identity; otherwise at least one role must match exactly.
// There is no role hierarchy.
func IsAllowed(id Identity, required RoleSet) bool {
	if !id.IsAuthenticated {
		return false
	}
	if required.Len() == 0 {
		return true
	}
	return id.Roles.Intersects(required)
}

// Capabilities is a flattened view of the roles a UI needs for conditional rendering.
type Capabilities struct {
	IsAdmin   bool
	IsDoctor  bool
	IsPatient bool
}

// CapabilitiesOf reports which of the known roles id holds.
func CapabilitiesOf(id Identity) Capabilities {
	return Capabilities{
		IsAdmin:   IsAllowed(id, NewRoleSet(RoleAdmin)),
		IsDoctor:  IsAllowed(id, NewRoleSet(RoleDoctor)),
		IsPatient: IsAllowed(id, NewRoleSet(RolePatient)),
	}
}

// Landing pages per role, checked in priority order.
const (
	AdminHome   = "/admin/dashboard"
	DoctorHome  = "/medico/dashboard"
	PatientHome = "/paciente/dashboard"
	PublicHome  = "/"
)

// HomePath returns where an identity lands after login.
func HomePath(id Identity) string {
	caps := CapabilitiesOf(id)
	switch {
	case caps.IsAdmin:
		return AdminHome
	case caps.IsDoctor:
		return DoctorHome
	case caps.IsPatient:
		return PatientHome
	default:
		return PublicHome
	}
}
