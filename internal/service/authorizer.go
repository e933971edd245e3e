package service

import (
	"context"
	"errors"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/models"
)

// Authorizer decides which patients a caller may act on. Patients may only
// act on themselves; caregivers and doctors on the patients linked to their
// user record.
type Authorizer struct {
	users UserDirectory
}

func NewAuthorizer(users UserDirectory) *Authorizer {
	return &Authorizer{users: users}
}

func (a *Authorizer) CanAccessPatient(ctx context.Context, caller models.Caller, patientID string) error {
	if err := validCaller(caller); err != nil {
		return err
	}
	if patientID == "" {
		return apperr.New(apperr.KindInvalidInput, "CanAccessPatient", "patient id is required")
	}

	if caller.Role == models.RolePatient {
		if caller.UID == patientID {
			return nil
		}
		return apperr.New(apperr.KindForbidden, "CanAccessPatient", "patients may only access their own data")
	}

	provider, err := a.provider(ctx, caller)
	if err != nil {
		return err
	}
	if !provider.HasPatient(patientID) {
		return apperr.Newf(apperr.KindForbidden, "CanAccessPatient", "patient %s is not linked to %s", patientID, caller.UID)
	}
	return nil
}

// RequireCareProvider rejects callers that are not caregivers or doctors.
func (a *Authorizer) RequireCareProvider(caller models.Caller) error {
	if err := validCaller(caller); err != nil {
		return err
	}
	if !caller.Role.IsCareProvider() {
		return apperr.Newf(apperr.KindForbidden, "RequireCareProvider", "role %s may not perform this action", caller.Role)
	}
	return nil
}

// PatientsOf lists the patient ids a caregiver or doctor looks after.
func (a *Authorizer) PatientsOf(ctx context.Context, caller models.Caller) ([]string, error) {
	if err := a.RequireCareProvider(caller); err != nil {
		return nil, err
	}
	provider, err := a.provider(ctx, caller)
	if err != nil {
		return nil, err
	}
	return provider.PatientIDs, nil
}

func (a *Authorizer) provider(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := a.users.GetUser(ctx, caller.UID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindForbidden, "Authorizer", "unknown user %s", caller.UID)
		}
		return nil, err
	}
	if user.Role != "" && user.Role != caller.Role {
		return nil, apperr.Newf(apperr.KindForbidden, "Authorizer", "role mismatch for user %s", caller.UID)
	}
	return user, nil
}

func validCaller(caller models.Caller) error {
	if caller.UID == "" || !caller.Role.Valid() {
		return apperr.New(apperr.KindForbidden, "Authorizer", "missing or invalid caller identity")
	}
	return nil
}
