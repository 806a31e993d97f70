package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every ConfigurationError via errors.Is
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation matches every ValidationError via errors.Is
	ErrValidation = errors.New("validation error")
)

// Configuration error codes
const (
	CodeNoRateCard               = "no_rate_card"
	CodeMultipleActiveRateCards  = "multiple_active_rate_cards"
	CodeRateNotFound             = "rate_not_found"
	CodeTierNotFound             = "tier_not_found"
	CodeUnsupportedBasis         = "unsupported_premium_basis"
	CodeUnsupportedFrequency     = "unsupported_frequency"
	CodeAddonRateNotFound        = "addon_rate_not_found"
	CodeCyclicHierarchy          = "cyclic_hierarchy"
	CodeUnknownParent            = "unknown_parent"
	CodeUnknownPrincipal         = "unknown_principal"
	CodeInvalidTriggerExpression = "invalid_trigger_expression"
	CodeNoPrincipal              = "no_principal"
	CodeUnknownPlan              = "unknown_plan"
	CodeUnknownBenefit           = "unknown_benefit"
	CodeLimitNotConfigured       = "limit_not_configured"
	CodePromoRuleMissing         = "promo_rule_missing"
)

// Validation error codes
const (
	CodePromoNotFound    = "promo_not_found"
	CodePromoInactive    = "promo_inactive"
	CodePromoNotStarted  = "promo_not_started"
	CodePromoExpired     = "promo_expired"
	CodePromoExhausted   = "promo_exhausted"
	CodePromoNotEligible = "promo_not_eligible"
	CodeInvalidMember    = "invalid_member"
	CodeInvalidClaim     = "invalid_claim"
)

// ConfigurationError is a product-configuration gap. It is fatal to the
// computation that raised it and must never be defaulted to zero.
type ConfigurationError struct {
	Code    string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error [%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrConfiguration) match
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError with a formatted message
func NewConfigurationError(code, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidationError is a user-correctable input problem
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error [%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(code, field, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the code from a configuration or validation error
// anywhere in err's chain
func ErrorCode(err error) string {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
