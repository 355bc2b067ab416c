package common

const (
	// AuthorizationHeader carries "Bearer <access token>" on authenticated requests.
	AuthorizationHeader = "Authorization"

	// RequestIDHeader is echoed back on every HTTP response.
	RequestIDHeader = "X-Request-ID"

	// MinPasswordLength applies to registration, change and reset.
	MinPasswordLength = 8
)
