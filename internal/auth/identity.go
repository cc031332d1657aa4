package auth

// StaticIdentity is a fixed user identity. The HTTP layer authenticates each
// request and hands the session layer a StaticIdentity for the resolved user;
// tests use it directly.
type StaticIdentity struct {
	ID string
}

func (s StaticIdentity) UserID() string { return s.ID }

func (s StaticIdentity) IsAuthenticated() bool { return s.ID != "" }

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = StaticIdentity{}
