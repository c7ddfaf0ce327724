// Package navguard gates view transitions by authentication state. The
// decision is recomputed from the session on every call, never cached,
// because a forced logout can flip the state between two navigations.
package navguard

import "log/slog"

// Session is the slice of the session store the guard reads.
type Session interface {
	IsAuthenticated() bool
}

// Route names known to the guard.
const (
	RouteLogin          = "login"
	RouteRegister       = "register"
	RouteHome           = "home"
	RouteDocuments      = "documents"
	RouteDocumentDetail = "document-detail"
	RouteSearch         = "search"
	RouteShared         = "shared"
	RouteProfile        = "profile"
	RouteEditor         = "editor"
	RouteShareAccess    = "share-access"
)

// Route describes a navigation target.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

// routes is the route table. Share-link access is deliberately public:
// link-based access works without a session.
var routes = map[string]Route{
	RouteLogin:          {Name: RouteLogin, Path: "/login"},
	RouteRegister:       {Name: RouteRegister, Path: "/register"},
	RouteHome:           {Name: RouteHome, Path: "/", RequiresAuth: true},
	RouteDocuments:      {Name: RouteDocuments, Path: "/documents", RequiresAuth: true},
	RouteDocumentDetail: {Name: RouteDocumentDetail, Path: "/documents/:id", RequiresAuth: true},
	RouteSearch:         {Name: RouteSearch, Path: "/search", RequiresAuth: true},
	RouteShared:         {Name: RouteShared, Path: "/shared", RequiresAuth: true},
	RouteProfile:        {Name: RouteProfile, Path: "/profile", RequiresAuth: true},
	RouteEditor:         {Name: RouteEditor, Path: "/editor/:id", RequiresAuth: true},
	RouteShareAccess:    {Name: RouteShareAccess, Path: "/share/:token"},
}

// Lookup returns the route table entry for a name.
func Lookup(name string) (Route, bool) {
	r, ok := routes[name]

	return r, ok
}

// Action is the guard's verdict on a transition.
type Action int

const (
	// Proceed; enter the target as requested.
	Proceed Action = iota
	// RedirectLogin; target needs a session and there is none. Decision
	// carries the originally intended path for post-login resumption.
	RedirectLogin
	// RedirectHome; an authenticated user asked for login/register.
	RedirectHome
)

// Decision is the outcome of one guard evaluation.
type Decision struct {
	Action Action
	// Resume is the originally intended path, set when Action is
	// RedirectLogin so the login view can return the user there.
	Resume string
}

// Guard evaluates transitions against the session.
type Guard struct {
	session Session
	logger  *slog.Logger
}

// New creates a guard over the given session.
func New(session Session, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}

	return &Guard{session: session, logger: logger}
}

// Decide evaluates a transition to target, reading the session state fresh.
// targetPath is the concrete path (route parameters filled in) preserved for
// resumption when the user is bounced to login.
func (g *Guard) Decide(target Route, targetPath string) Decision {
	authenticated := g.session.IsAuthenticated()

	if target.RequiresAuth && !authenticated {
		g.logger.Debug("redirecting anonymous user to login",
			slog.String("target", target.Name),
			slog.String("resume", targetPath),
		)

		return Decision{Action: RedirectLogin, Resume: targetPath}
	}

	if authenticated && (target.Name == RouteLogin || target.Name == RouteRegister) {
		g.logger.Debug("redirecting authenticated user to home",
			slog.String("target", target.Name),
		)

		return Decision{Action: RedirectHome}
	}

	return Decision{Action: Proceed}
}
