package apperrors

type Type string

const (
	TypeValidation          Type = "validation"
	TypeNotFound            Type = "not_found"
	TypeConflict            Type = "conflict"
	TypeUnauthorized        Type = "unauthorized"
	TypeInsufficientBalance Type = "insufficient_balance"
	TypeTransient           Type = "transient"
	TypeInternal            Type = "internal"
)

type AppError struct {
	Type    Type           `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

// Retriable reports whether the failure is a provider-side transient
// condition; callers back off and retry instead of surfacing it.
func (e *AppError) Retriable() bool {
	return e != nil && e.Type == TypeTransient
}

func NewInternal(code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    TypeInternal,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewValidation(code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    TypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewNotFound(code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    TypeNotFound,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewConflict(code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    TypeConflict,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewUnauthorized(code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    TypeUnauthorized,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewInsufficientBalance(code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    TypeInsufficientBalance,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewTransient(code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    TypeTransient,
		Code:    code,
		Message: message,
		Details: details,
	}
}
