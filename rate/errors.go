package rate

import "errors"

// ErrInvalidAPIKey is returned by an adapter when the upstream API rejects
// credentials outright (401/403 with an auth-specific body). Per spec §7
// this is fatal for the enclosing pipeline — callers should abort rather
// than retry.
var ErrInvalidAPIKey = errors.New("invalid api key")

// ErrRateLimited is returned after WithRetry exhausts its backoff budget
// against an upstream that kept signaling rate-limiting (HTTP 429 or
// equivalent upstream text).
var ErrRateLimited = errors.New("rate limited")
