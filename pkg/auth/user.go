package auth

// User is the signed-in user's record, persisted as JSON under Key.
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar"`
}

// clone returns a deep copy of u.
func (u User) clone() User {
	if u.Avatar != nil {
		avatar := *u.Avatar
		u.Avatar = &avatar
	}
	return u
}

// State is the session lifecycle state.
type State string

const (
	// StateUnknown is the state before hydration completes.
	StateUnknown State = "unknown"
	// StateSignedOut means no user record is present.
	StateSignedOut State = "signed_out"
	// StateSignedIn means a user record is present.
	StateSignedIn State = "signed_in"
)

// Credentials are the sign-in inputs.
type Credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Registration are the sign-up inputs.
type Registration struct {
	Name     string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// ProfileUpdate is a partial update of the user record. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Name   *string
	Email  *string
	Avatar *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Avatar == nil
}

// apply merges p into u.
func (p ProfileUpdate) apply(u User) User {
	u = u.clone()
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		avatar := *p.Avatar
		u.Avatar = &avatar
	}
	return u
}
