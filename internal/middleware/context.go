package middleware

// contextKey is the type of every context key set by this package.
type contextKey string
