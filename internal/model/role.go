package model

// Role identifies which dashboard a person uses.
type Role string

const (
	RoleFamily    Role = "family"
	RoleElder     Role = "elder"
	RoleCaregiver Role = "caregiver"
	RoleDoctor    Role = "doctor"
)

// Roles lists every role in display order.
var Roles = []Role{RoleFamily, RoleElder, RoleCaregiver, RoleDoctor}

// ParseRole returns the role named by s and whether it is known.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleFamily, RoleElder, RoleCaregiver, RoleDoctor:
		return r, true
	}
	return "", false
}

// View is a dashboard page.
type View string

const (
	ViewFamily    View = "family-dashboard"
	ViewElderSos  View = "elder-sos"
	ViewCaregiver View = "caregiver-dashboard"
	ViewDoctor    View = "doctor-dashboard"
	ViewSummary   View = "monthly-summary"
)

// Views returns the dashboard pages available to r.
func (r Role) Views() []View {
	switch r {
	case RoleFamily:
		return []View{ViewFamily, ViewSummary}
	case RoleElder:
		return []View{ViewElderSos}
	case RoleCaregiver:
		return []View{ViewCaregiver}
	case RoleDoctor:
		return []View{ViewDoctor, ViewSummary}
	}
	return nil
}
