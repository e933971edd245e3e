package models

import "slices"

// UnnamedUser is shown for users registered without a name.
const UnnamedUser = "Sin nombre"

type User struct {
	ID         string   `bson:"_id,omitempty" json:"id"`
	Name       string   `bson:"name" json:"name"`
	Email      string   `bson:"email" json:"email"`
	Role       Role     `bson:"role" json:"role"`
	PatientIDs []string `bson:"patient_ids,omitempty" json:"patient_ids,omitempty"`
}

func (u *User) HasPatient(patientID string) bool {
	return slices.Contains(u.PatientIDs, patientID)
}

func (u *User) DisplayName() string {
	if u == nil || u.Name == "" {
		return UnnamedUser
	}
	return u.Name
}
