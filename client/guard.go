package client

// Routes guards redirect to.
const (
	LoginRoute        = "/login"
	StudentSetupRoute = "/student-setup"
	DashboardRoute    = "/dashboard"
	SubAdminRoute     = "/sub-admin/dashboard"
	SuperAdminRoute   = "/super-admin/dashboard"
)

// Decision is the outcome of evaluating a guard: either the navigation is
// authorized or the caller must redirect. From preserves the originally
// requested path across a login redirect, so the app can return the user
// there after they sign in.
type Decision struct {
	Authorized bool
	Redirect   string
	From       string
}

func allow() Decision {
	return Decision{Authorized: true}
}

func redirect(target string) Decision {
	return Decision{Redirect: target}
}

func toLogin(path string) Decision {
	return Decision{Redirect: LoginRoute, From: path}
}

// Guard evaluates a navigation against the current session. Guards are pure:
// they read the session snapshot and the requested path and return a
// decision, nothing else.
type Guard func(sess Session, authenticated bool, path string) Decision

// GuestGuard protects pages like login and register: an authenticated user
// is bounced to the dashboard for their role.
func GuestGuard(sess Session, authenticated bool, _ string) Decision {
	if !authenticated {
		return allow()
	}
	return redirect(homeRoute(sess.User))
}

// StudentGuard protects the student experience. Admin roles pass too, so a
// sub-admin can browse the same pages students see.
func StudentGuard(sess Session, authenticated bool, path string) Decision {
	if !authenticated {
		return toLogin(path)
	}
	if sess.User.Role == RoleStudent && !sess.User.IsSetupComplete {
		return redirect(StudentSetupRoute)
	}
	return allow()
}

// SubAdminGuard admits sub-admins and super-admins; everyone else signs in
// with an account that has the role.
func SubAdminGuard(sess Session, authenticated bool, path string) Decision {
	switch {
	case !authenticated:
		return toLogin(path)
	case sess.User.Role == RoleSubAdmin, sess.User.Role == RoleSuperAdmin:
		return allow()
	default:
		return toLogin(path)
	}
}

// SuperAdminGuard admits super-admins only.
func SuperAdminGuard(sess Session, authenticated bool, path string) Decision {
	if !authenticated || sess.User.Role != RoleSuperAdmin {
		return toLogin(path)
	}
	return allow()
}

// Evaluate runs a guard against the store's current session for the
// requested path.
func Evaluate(guard Guard, sessions *SessionStore, path string) Decision {
	sess, ok := sessions.Session()
	return guard(sess, ok, path)
}

func homeRoute(user User) string {
	switch user.Role {
	case RoleSuperAdmin:
		return SuperAdminRoute
	case RoleSubAdmin:
		return SubAdminRoute
	default:
		if !user.IsSetupComplete {
			return StudentSetupRoute
		}
		return DashboardRoute
	}
}
