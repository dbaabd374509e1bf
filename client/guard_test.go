package client_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/divyesh007-delta/Placify-1/client"
)

func sessionWith(role string, setupComplete bool) client.Session {
	return client.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User: client.User{
			ID:              "u1",
			Email:           "u1@bvmengineering.ac.in",
			Role:            role,
			IsSetupComplete: setupComplete,
		},
	}
}

func TestGuestGuard(t *testing.T) {
	require.True(t, client.GuestGuard(client.Session{}, false, "/login").Authorized)

	cases := map[string]string{
		client.RoleStudent:    client.DashboardRoute,
		client.RoleSubAdmin:   client.SubAdminRoute,
		client.RoleSuperAdmin: client.SuperAdminRoute,
	}
	for role, expect := range cases {
		decision := client.GuestGuard(sessionWith(role, true), true, "/login")
		require.False(t, decision.Authorized)
		require.Equal(t, expect, decision.Redirect, "role %s", role)
	}

	decision := client.GuestGuard(sessionWith(client.RoleStudent, false), true, "/login")
	require.Equal(t, client.StudentSetupRoute, decision.Redirect)
}

func TestStudentGuard(t *testing.T) {
	decision := client.StudentGuard(client.Session{}, false, "/companies/comp_x")
	require.False(t, decision.Authorized)
	require.Equal(t, client.LoginRoute, decision.Redirect)
	require.Equal(t, "/companies/comp_x", decision.From)

	require.True(t, client.StudentGuard(sessionWith(client.RoleStudent, true), true, "/dashboard").Authorized)

	decision = client.StudentGuard(sessionWith(client.RoleStudent, false), true, "/dashboard")
	require.Equal(t, client.StudentSetupRoute, decision.Redirect)

	// Admin roles may browse student routes too.
	require.True(t, client.StudentGuard(sessionWith(client.RoleSubAdmin, true), true, "/dashboard").Authorized)
	require.True(t, client.StudentGuard(sessionWith(client.RoleSuperAdmin, true), true, "/dashboard").Authorized)
}

func TestSubAdminGuard(t *testing.T) {
	decision := client.SubAdminGuard(client.Session{}, false, client.SubAdminRoute)
	require.Equal(t, client.LoginRoute, decision.Redirect)
	require.Equal(t, client.SubAdminRoute, decision.From)

	// A student does not hold the role; they are sent to sign in with an
	// account that does, requested path preserved.
	decision = client.SubAdminGuard(sessionWith(client.RoleStudent, true), true, client.SubAdminRoute)
	require.False(t, decision.Authorized)
	require.Equal(t, client.LoginRoute, decision.Redirect)
	require.Equal(t, client.SubAdminRoute, decision.From)

	require.True(t, client.SubAdminGuard(sessionWith(client.RoleSubAdmin, true), true, client.SubAdminRoute).Authorized)
	require.True(t, client.SubAdminGuard(sessionWith(client.RoleSuperAdmin, true), true, client.SubAdminRoute).Authorized)
}

func TestSuperAdminGuard(t *testing.T) {
	decision := client.SuperAdminGuard(client.Session{}, false, client.SuperAdminRoute)
	require.Equal(t, client.LoginRoute, decision.Redirect)

	decision = client.SuperAdminGuard(sessionWith(client.RoleSubAdmin, true), true, client.SuperAdminRoute)
	require.Equal(t, client.LoginRoute, decision.Redirect)
	require.Equal(t, client.SuperAdminRoute, decision.From)

	require.True(t, client.SuperAdminGuard(sessionWith(client.RoleSuperAdmin, true), true, client.SuperAdminRoute).Authorized)
}

func TestEvaluateUsesStoreSnapshot(t *testing.T) {
	sessions := client.NewSessionStore(client.NewMemoryStorage())

	decision := client.Evaluate(client.StudentGuard, sessions, "/dashboard")
	require.Equal(t, client.LoginRoute, decision.Redirect)
	require.Equal(t, "/dashboard", decision.From)

	user := client.User{ID: "u1", Email: "u1@bvmengineering.ac.in", Role: client.RoleStudent, IsSetupComplete: true}
	require.NoError(t, sessions.Login("access", "refresh", user))
	require.True(t, client.Evaluate(client.StudentGuard, sessions, "/dashboard").Authorized)
}
