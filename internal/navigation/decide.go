package navigation

import (
	"net/url"

	"github.com/medplus/medplus-client/internal/domain/auth"
)

// Outcome is the kind of navigation decision.
type Outcome int

const (
	// Wait means the session is still initialising; show a loading state.
	Wait Outcome = iota
	Allow
	RedirectLogin
	RedirectUnauthorized
	// RedirectHome is returned for paths outside the route table.
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Decision tells the shell what to do with a navigation request.
type Decision struct {
	Outcome Outcome
	// Target is where to go for redirects; empty otherwise.
	Target string
	// From is the originally requested path, kept for post-login return.
	From   string
	Route  Route
	Params map[string]string
}

// LoginTarget builds the login URL carrying the original destination.
func LoginTarget(from string) string {
	if from == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {from}}.Encode()
}

// Decide evaluates a navigation to path against the session snapshot.
// Public routes are always allowed. Protected routes wait while the session
// is initialising, send anonymous users to login, and send authenticated
// users lacking the required role to the unauthorized page.
func Decide(s auth.Session, path string) Decision {
	route, params, ok := Match(path)
	if !ok {
		return Decision{Outcome: RedirectHome, Target: auth.PublicHome, From: path}
	}
	d := Decision{Route: route, Params: params}
	if route.Public {
		d.Outcome = Allow
		return d
	}
	if !s.Ready() {
		d.Outcome = Wait
		return d
	}
	if s.State != auth.StateAuthenticated || !s.Identity.IsAuthenticated {
		d.Outcome = RedirectLogin
		d.From = path
		d.Target = LoginTarget(path)
		return d
	}
	if !auth.IsAllowed(s.Identity, route.Roles) {
		d.Outcome = RedirectUnauthorized
		d.Target = UnauthorizedPath
		return d
	}
	d.Outcome = Allow
	return d
}
