package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleAdmin))
	assert.True(t, IsValidRole(RoleDoctor))
	assert.True(t, IsValidRole(RoleDataAnalyst))
	assert.False(t, IsValidRole("nurse"))
	assert.False(t, IsValidRole(""))
}

func TestRoleDisplay(t *testing.T) {
	assert.Equal(t, "Doctor", RoleDisplay(RoleDoctor))
	assert.Equal(t, "Lab Technician", RoleDisplay(RoleLabTechnician))
	assert.Equal(t, "nurse", RoleDisplay("nurse"))
}

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "Grace", LastName: "Okafor"}
	assert.Equal(t, "Grace Okafor", u.FullName())
}
