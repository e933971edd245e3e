package models

type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
	RoleDoctor    Role = "doctor"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleCaregiver, RoleDoctor:
		return true
	}
	return false
}

// IsCareProvider reports whether the role looks after patients rather than
// being one.
func (r Role) IsCareProvider() bool {
	return r == RoleCaregiver || r == RoleDoctor
}

// Caller is the authenticated identity behind a request. It is passed
// explicitly into every service operation.
type Caller struct {
	UID  string `json:"uid"`
	Role Role   `json:"role"`
}
