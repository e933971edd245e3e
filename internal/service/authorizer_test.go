package service

import (
	"context"
	"testing"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func careDirectory() fakeUsers {
	return fakeUsers{
		"p1":  {ID: "p1", Name: "Ana", Role: models.RolePatient},
		"p2":  {ID: "p2", Name: "Luis", Role: models.RolePatient},
		"c1":  {ID: "c1", Name: "Marta", Role: models.RoleCaregiver, PatientIDs: []string{"p1"}},
		"d1":  {ID: "d1", Name: "Dr. Ruiz", Role: models.RoleDoctor, PatientIDs: []string{"p1", "p2"}},
		"c2":  {ID: "c2", Role: models.RoleCaregiver},
		"bad": {ID: "bad", Role: models.RolePatient, PatientIDs: []string{"p1"}},
	}
}

func TestAuthorizer_CanAccessPatient(t *testing.T) {
	auth := NewAuthorizer(careDirectory())

	tests := []struct {
		name    string
		caller  models.Caller
		patient string
		wantErr error
	}{
		{name: "patient self", caller: models.Caller{UID: "p1", Role: models.RolePatient}, patient: "p1"},
		{name: "patient other", caller: models.Caller{UID: "p1", Role: models.RolePatient}, patient: "p2", wantErr: apperr.ErrForbidden},
		{name: "linked caregiver", caller: models.Caller{UID: "c1", Role: models.RoleCaregiver}, patient: "p1"},
		{name: "unlinked caregiver", caller: models.Caller{UID: "c1", Role: models.RoleCaregiver}, patient: "p2", wantErr: apperr.ErrForbidden},
		{name: "doctor", caller: models.Caller{UID: "d1", Role: models.RoleDoctor}, patient: "p2"},
		{name: "unknown user", caller: models.Caller{UID: "ghost", Role: models.RoleDoctor}, patient: "p1", wantErr: apperr.ErrForbidden},
		{name: "role mismatch", caller: models.Caller{UID: "bad", Role: models.RoleCaregiver}, patient: "p1", wantErr: apperr.ErrForbidden},
		{name: "missing role", caller: models.Caller{UID: "c1"}, patient: "p1", wantErr: apperr.ErrForbidden},
		{name: "missing patient", caller: models.Caller{UID: "c1", Role: models.RoleCaregiver}, wantErr: apperr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.CanAccessPatient(context.Background(), tt.caller, tt.patient)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorizer_RequireCareProvider(t *testing.T) {
	auth := NewAuthorizer(careDirectory())

	assert.NoError(t, auth.RequireCareProvider(models.Caller{UID: "c1", Role: models.RoleCaregiver}))
	assert.NoError(t, auth.RequireCareProvider(models.Caller{UID: "d1", Role: models.RoleDoctor}))
	assert.ErrorIs(t, auth.RequireCareProvider(models.Caller{UID: "p1", Role: models.RolePatient}), apperr.ErrForbidden)
}

func TestAuthorizer_PatientsOf(t *testing.T) {
	auth := NewAuthorizer(careDirectory())

	ids, err := auth.PatientsOf(context.Background(), models.Caller{UID: "d1", Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)

	ids, err = auth.PatientsOf(context.Background(), models.Caller{UID: "c2", Role: models.RoleCaregiver})
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = auth.PatientsOf(context.Background(), models.Caller{UID: "p1", Role: models.RolePatient})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
