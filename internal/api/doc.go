// Package api implements the HTTP REST API for pwstrength-server.
//
// New(history, metrics, bench) returns a Handler that serves:
//
//	GET  /api/v1/health           status and live history count
//	POST /api/v1/score            {"password"} to {"score"}
//	POST /api/v1/label            {"score"} to {"strength_level"}
//	POST /api/v1/entropy          {"password"} to {"entropy"}
//	POST /api/v1/analyze          {"password"} to the full strength.Analysis
//	POST /api/v1/benchmark        one timed Benchmark call
//	POST /api/v1/benchmarks       multi-round bench.Run, stored in history
//	GET  /api/v1/benchmarks       live history, newest first
//	GET  /api/v1/benchmarks/{id}  one report; 404 if unknown or expired
//
// All endpoints respond with Content-Type: application/json and return 405
// for the wrong method. Malformed bodies and out-of-range parameters get 400.
// Passwords are never logged or stored.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
