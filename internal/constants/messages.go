package constants

// Error messages used in API responses.
// These are the human-readable messages returned in the "message" field.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgForbidden          = "Forbidden"
	MsgRateLimited        = "Too many requests, slow down"

	// Shortener-specific messages
	MsgInvalidURL    = "Invalid URL (must be http or https)"
	MsgInvalidKey    = "Custom key must be letters and digits only and not a reserved word"
	MsgKeyTaken      = "This short key is already in use"
	MsgKeyExhausted  = "Could not allocate a short key, try again"
	MsgInvalidExpiry = "Expiry must be in the future"
	MsgInvalidRange  = "Invalid date range"
	MsgLinkExpired   = "This link has expired"
	MsgLinkNotFound  = "Link not found"

	// Account messages
	MsgUsernameTaken      = "Username is already taken"
	MsgInvalidCredentials = "Invalid username or password"
)
