package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"

	// Shortener-specific codes
	CodeInvalidURL    = "INVALID_URL"
	CodeInvalidKey    = "INVALID_KEY"
	CodeKeyTaken      = "KEY_TAKEN"
	CodeKeyExhausted  = "KEY_SPACE_EXHAUSTED"
	CodeInvalidExpiry = "INVALID_EXPIRY"
	CodeInvalidRange  = "INVALID_RANGE"
	CodeLinkExpired   = "LINK_EXPIRED"
	CodeLinkNotFound  = "LINK_NOT_FOUND"

	// Account codes
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Success codes
	CodeLinkCreated    = "LINK_CREATED"
	CodeLinkFound      = "LINK_FOUND"
	CodeLinkUpdated    = "LINK_UPDATED"
	CodeLinkDeleted    = "LINK_DELETED"
	CodeLinksListed    = "LINKS_LISTED"
	CodeStatsFound     = "STATS_FOUND"
	CodeUserRegistered = "USER_REGISTERED"
	CodeLoggedIn       = "LOGGED_IN"
	CodeUserFound      = "USER_FOUND"
)
