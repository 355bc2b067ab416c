package auth

// Caller is the identity and request metadata of whoever invoked an
// operation. Handlers build it once per request and pass it explicitly.
// A nil Caller or one without a UserID is anonymous.
type Caller struct {
	UserID    string
	Email     string
	IsStaff   bool
	IsAdmin   bool
	RequestID string
	ClientIP  string
}

func (c *Caller) Authenticated() bool {
	return c != nil && c.UserID != ""
}

// Privileged reports whether the caller bypasses ownership checks.
func (c *Caller) Privileged() bool {
	return c.Authenticated() && (c.IsStaff || c.IsAdmin)
}
