// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

// HeaderRequestID is the canonical header for request correlation, set by
// RequestID and echoed by CORS's Access-Control-Expose-Headers/Allow-Headers
// lists so browser clients can read and resend it.
const HeaderRequestID = "X-Request-ID"
