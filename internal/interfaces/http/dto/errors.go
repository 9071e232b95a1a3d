package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidPeriod is used when a month or year key is malformed
	ErrCodeInvalidPeriod = "ERR_INVALID_PERIOD"
	// ErrCodeInvalidAmount is used when a monetary amount is malformed
	ErrCodeInvalidAmount = "ERR_INVALID_AMOUNT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeLedgerRowMissing is used when an adjustment targets a period
	// with no ledger row
	ErrCodeLedgerRowMissing = "ERR_LEDGER_ROW_MISSING"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when partner identification is missing or invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
)

// Dependency error codes
const (
	// ErrCodeCacheUnavailable is used when the aggregation cache is unreachable
	ErrCodeCacheUnavailable = "ERR_CACHE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidPeriod: http.StatusBadRequest,
	ErrCodeInvalidAmount: http.StatusBadRequest,

	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeLedgerRowMissing: http.StatusNotFound,

	ErrCodeUnauthorized: http.StatusUnauthorized,

	ErrCodeCacheUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the wire format
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"INVALID_INPUT":      ErrCodeInvalidInput,
	"INVALID_PERIOD":     ErrCodeInvalidPeriod,
	"INVALID_AMOUNT":     ErrCodeInvalidAmount,
	"CACHE_UNAVAILABLE":  ErrCodeCacheUnavailable,
	"LEDGER_ROW_MISSING": ErrCodeLedgerRowMissing,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the wire format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if wireCode, ok := DomainErrorCodeMapping[code]; ok {
		return wireCode
	}
	return code
}
