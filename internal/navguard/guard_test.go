package navguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a Session with a settable authentication state.
type fakeSession struct {
	authenticated bool
}

func (f *fakeSession) IsAuthenticated() bool {
	return f.authenticated
}

func mustLookup(t *testing.T, name string) Route {
	t.Helper()

	r, ok := Lookup(name)
	require.True(t, ok, "route %s not in table", name)

	return r
}

func TestDecide_Matrix(t *testing.T) {
	tests := []struct {
		name          string
		route         string
		authenticated bool
		want          Action
	}{
		{"anonymous to login", RouteLogin, false, Proceed},
		{"anonymous to register", RouteRegister, false, Proceed},
		{"anonymous to share access", RouteShareAccess, false, Proceed},
		{"anonymous to home", RouteHome, false, RedirectLogin},
		{"anonymous to documents", RouteDocuments, false, RedirectLogin},
		{"anonymous to document detail", RouteDocumentDetail, false, RedirectLogin},
		{"anonymous to search", RouteSearch, false, RedirectLogin},
		{"anonymous to shared", RouteShared, false, RedirectLogin},
		{"anonymous to profile", RouteProfile, false, RedirectLogin},
		{"anonymous to editor", RouteEditor, false, RedirectLogin},
		{"authenticated to login", RouteLogin, true, RedirectHome},
		{"authenticated to register", RouteRegister, true, RedirectHome},
		{"authenticated to home", RouteHome, true, Proceed},
		{"authenticated to documents", RouteDocuments, true, Proceed},
		{"authenticated to share access", RouteShareAccess, true, Proceed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := New(&fakeSession{authenticated: tt.authenticated}, nil)
			route := mustLookup(t, tt.route)

			decision := guard.Decide(route, route.Path)
			assert.Equal(t, tt.want, decision.Action)
		})
	}
}

func TestDecide_RedirectLoginCarriesResumePath(t *testing.T) {
	guard := New(&fakeSession{}, nil)
	route := mustLookup(t, RouteDocumentDetail)

	decision := guard.Decide(route, "/documents/d1")
	assert.Equal(t, RedirectLogin, decision.Action)
	assert.Equal(t, "/documents/d1", decision.Resume)
}

func TestDecide_ProceedHasNoResume(t *testing.T) {
	guard := New(&fakeSession{authenticated: true}, nil)
	route := mustLookup(t, RouteDocuments)

	decision := guard.Decide(route, route.Path)
	assert.Equal(t, Proceed, decision.Action)
	assert.Empty(t, decision.Resume)
}

func TestDecide_ReadsSessionFresh(t *testing.T) {
	session := &fakeSession{authenticated: true}
	guard := New(session, nil)
	route := mustLookup(t, RouteDocuments)

	assert.Equal(t, Proceed, guard.Decide(route, route.Path).Action)

	// A forced logout between two navigations flips the verdict; nothing
	// is cached from the first call.
	session.authenticated = false
	assert.Equal(t, RedirectLogin, guard.Decide(route, route.Path).Action)
}

func TestLookup_UnknownRoute(t *testing.T) {
	_, ok := Lookup("nonexistent")
	assert.False(t, ok)
}
