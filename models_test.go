package crm_test

import (
	"testing"

	crm "github.com/goliatone/go-crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserEnsureStatus(t *testing.T) {
	t.Run("explicit status kept", func(t *testing.T) {
		u := &crm.User{Status: crm.UserStatusArchived}
		u.EnsureStatus()
		assert.Equal(t, crm.UserStatusArchived, u.Status)
	})

	t.Run("no credential and no external id reads as invited", func(t *testing.T) {
		u := &crm.User{}
		u.EnsureStatus()
		assert.Equal(t, crm.UserStatusInvited, u.Status)
	})

	t.Run("password hash reads as active", func(t *testing.T) {
		u := &crm.User{PasswordHash: "hash"}
		u.EnsureStatus()
		assert.Equal(t, crm.UserStatusActive, u.Status)
	})

	t.Run("external id reads as active", func(t *testing.T) {
		externalID := "okta|abc"
		u := &crm.User{ExternalID: &externalID}
		u.EnsureStatus()
		assert.Equal(t, crm.UserStatusActive, u.Status)
	})
}

func TestUserPrincipal(t *testing.T) {
	u := &crm.User{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Role:      crm.RoleAdmin,
		Email:     "admin@example.com",
	}

	p := u.Principal()
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, u.AccountID, p.AccountID)
	assert.Equal(t, crm.RoleAdmin, p.Role)
	assert.True(t, p.IsAdmin())
}

func TestRoles(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		role, ok := crm.ParseRole("admin")
		assert.True(t, ok)
		assert.Equal(t, crm.RoleAdmin, role)

		role, ok = crm.ParseRole("sales_rep")
		assert.True(t, ok)
		assert.Equal(t, crm.RoleSalesRep, role)

		_, ok = crm.ParseRole("superuser")
		assert.False(t, ok)
	})

	t.Run("validity", func(t *testing.T) {
		assert.True(t, crm.RoleAdmin.IsValid())
		assert.True(t, crm.RoleSalesRep.IsValid())
		assert.False(t, crm.UserRole("manager").IsValid())
	})

	t.Run("all roles", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]crm.UserRole{crm.RoleAdmin, crm.RoleSalesRep},
			crm.GetAllRoles(),
		)
	})
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{"us number with punctuation", "(212) 555-0123", "+12125550123"},
		{"already e164", "+12125550123", "+12125550123"},
		{"unparseable kept raw", "ext. 42", "ext. 42"},
		{"empty", "", ""},
		{"whitespace trimmed", "  +12125550123  ", "+12125550123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.out, crm.NormalizePhone(tc.in))
		})
	}
}
