// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import "errors"

// Common API errors
var (
	// ErrInvalidParam indicates a query parameter could not be parsed.
	ErrInvalidParam = errors.New("invalid query parameter")
)
