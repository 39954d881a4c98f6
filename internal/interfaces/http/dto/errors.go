package dto

import "net/http"

// Error codes returned in Response.Error.Code
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	// File import
	ErrCodeUnsupportedFormat = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeFileTooLarge      = "ERR_FILE_TOO_LARGE"
	ErrCodeEmptyFile         = "ERR_EMPTY_FILE"
	ErrCodeFormat            = "ERR_FORMAT"
	ErrCodeMissingField      = "ERR_MISSING_FIELD"

	// ERP integration
	ErrCodeUnknownAdapter = "ERR_UNKNOWN_ADAPTER"
	ErrCodeInvalidConfig  = "ERR_INVALID_CONFIG"
	ErrCodeErpFailure     = "ERR_ERP_FAILURE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusConflict,

	ErrCodeUnsupportedFormat: http.StatusBadRequest,
	ErrCodeFileTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeEmptyFile:         http.StatusBadRequest,
	ErrCodeFormat:            http.StatusBadRequest,
	ErrCodeMissingField:      http.StatusBadRequest,

	ErrCodeUnknownAdapter: http.StatusBadRequest,
	ErrCodeInvalidConfig:  http.StatusBadRequest,
	ErrCodeErpFailure:     http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":     ErrCodeNotFound,
	"INVALID_STATE": ErrCodeInvalidState,
	"INVALID_TYPE":  ErrCodeUnknownAdapter,
}

// NormalizeErrorCode converts a domain error code to an API error code.
// Unmapped codes are domain validation failures.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return ErrCodeValidation
}
