// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"github.com/ManuGH/wavy-storage/internal/metrics"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Accounting wraps every request with the scoped response-time timer and the
// total/active-connection/error-by-status counters described in spec §4.9.
// Per-owner upload/delete accounting happens in the handlers themselves,
// since only they know the owner nickname.
func Accounting() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := metrics.StartTimer()
			metrics.RequestStarted()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			metrics.RequestFinished(ww.Status())
			timer.Stop()
		})
	}
}
