package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

// ProviderError is returned for any failed call to the ESIA gateway.
// Code and Description carry error/error_description from the gateway body when it sent them.
type ProviderError struct {
	Op          string
	StatusCode  int
	Body        string
	Code        string
	Description string
	Err         error
}

func newProviderError(op string, status int, body []byte, err error) *ProviderError {
	providerErr := &ProviderError{Op: op, StatusCode: status, Body: truncate(body), Err: err}

	if len(body) > 0 && gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		providerErr.Code = parsed.Get("error").String()
		providerErr.Description = parsed.Get("error_description").String()
	}

	return providerErr
}

func (e *ProviderError) Error() string {
	msg := "esia " + e.Op + " failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.StatusCode)
	}
	if e.Code != "" || e.Description != "" {
		msg += " (" + strings.Trim(e.Code+": "+e.Description, ": ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translateDBError maps store errors onto the package sentinels
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
