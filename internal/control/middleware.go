// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20 // 1 MiB (§4.2)

// loggingMiddleware logs one line per request, grounded on the teacher's
// request-logging middleware.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// recoveryMiddleware turns a panic into a 500 instead of killing the
// listener goroutine.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("control: panic recovered: %v", err)
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bodyLimitMiddleware caps every request body at maxBodyBytes (§4.2).
func bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// authMiddleware rejects any request whose X-Touchgrass-Auth header does
// not constant-time match the daemon's persisted secret. /health is
// deliberately exempt so CLI tooling can probe liveness pre-auth.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		token := r.Header.Get("X-Touchgrass-Auth")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			writeError(w, http.StatusUnauthorized, codeAuthFailed, "missing or invalid auth token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
