// Package httpapi is the JSON/HTTP boundary of the auth service. It decodes
// request bodies into typed DTOs, calls the engine, and renders every result
// in the same envelope:
//
//	{"success": true,  "data": {...}}
//	{"success": false, "error": {"code": "...", "message": "...", "messageVi": "..."}}
//
// INTERNAL faults are reported to Sentry when a client is configured; their
// causes never reach the response body.
package httpapi
