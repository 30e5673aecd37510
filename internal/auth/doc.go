// Package auth provides API key middleware for the pwstrength HTTP server.
//
// APIKey(mode, header, key) wraps an http.Handler and checks the named request
// header against key. When mode != "apikey" or key == "", every request
// passes through (local development with auth disabled). A missing or wrong
// key gets 401 with a JSON error body and never reaches the wrapped handler.
package auth
