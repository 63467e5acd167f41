// Package guard holds in-process protections: a per-client request rate
// limiter for the HTTP API and a circuit breaker for broker publishing.
package guard

// Result reports whether a guard let a call through.
type Result struct {
	Allowed bool
	Reason  string
	Guard   string
}
