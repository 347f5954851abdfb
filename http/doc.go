// Package http provides the HTTP API for the filecrate upload coordinator.
//
// The API exposes three upload paths:
//
//   - Whole-object pre-signed PUT: GET /api/files/upload returns a short-lived
//     URL the client PUTs to directly, then registers the record via
//     POST /api/files.
//   - Server-buffered multipart: POST /api/files/upload accepts the file body
//     and the server relays it to the object store in concurrent parts.
//   - Client-driven multipart: POST /api/upload/start opens a session, the
//     client fetches per-part URLs from /api/upload/sign-part, uploads parts
//     itself, reports ETags to /api/upload/register-part, and finalizes with
//     /api/upload/complete.
//
// # Authentication
//
// File and folder record operations require a bearer token verified through
// the Authenticator interface; the authenticated principal becomes the record
// owner. The bucket listing, pre-sign issuance, and the client-driven
// multipart endpoints are public.
//
// # Usage
//
//	coordinator, _ := filecrate.NewCoordinator(store, repo, nil, filecrate.CoordinatorConfig{})
//	verifier := auth.NewVerifier(secret)
//
//	handler := http.NewHandler(&http.HandlerConfig{CORS: corsCfg}, coordinator, verifier)
//	http.ListenAndServe(":8080", handler.Router())
//
// Every coordinator error kind maps to a distinct JSON error code, so clients
// can distinguish an incomplete parts set from a duplicate part or a failed
// finalization without parsing messages.
package http
