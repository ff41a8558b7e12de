package middleware

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// RequesterKey is the context key for the requesting owner's
	// identity. Set by the auth middleware, read by the rate limiter.
	RequesterKey ContextKey = "requester"
)
