// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

// Error is a structured error response from the backend. Callers use
// errors.As to inspect it:
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound { ... }
type Error struct {
	// Code is the backend error code, when the backend supplies one.
	Code string `json:"code"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a *Error with the given HTTP status.
func IsStatus(err error, statusCode int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// ErrSessionEnded indicates that the access token expired and the
// silent refresh failed: the user must authenticate again. The
// wrapping error chain retains the refresh failure.
var ErrSessionEnded = errors.New("api: session ended")
