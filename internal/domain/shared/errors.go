package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidPeriod    = NewDomainError("INVALID_PERIOD", "Period key is missing or malformed")
	ErrInvalidAmount    = NewDomainError("INVALID_AMOUNT", "Monetary amount is missing or malformed")
	ErrCacheUnavailable = NewDomainError("CACHE_UNAVAILABLE", "Aggregation cache is unreachable")
	ErrLedgerRowMissing = NewDomainError("LEDGER_ROW_MISSING", "No ledger row exists for the period")
)
