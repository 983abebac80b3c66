// Package errors provides severity-aware error types for rate-card
// configuration failures, the one fatal error class in the system.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ConfigError is a structured rate-card configuration error.
type ConfigError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Carrier  string   `json:"carrier,omitempty"`
	Service  string   `json:"service,omitempty"`
}

func (e *ConfigError) Error() string {
	if e.Carrier != "" {
		return fmt.Sprintf("[%s] %s: %s (carrier: %s/%s)", e.Severity, e.Code, e.Message, e.Carrier, e.Service)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeNoBrackets   = "NO_BRACKETS"
	ErrCodeBracketGap   = "BRACKET_GAP"
	ErrCodeNoZoneTable  = "NO_ZONE_TABLE"
	ErrCodeBadDivisor   = "BAD_DIM_DIVISOR"
	ErrCodeUnknownTier  = "UNKNOWN_TIER"
	ErrCodeDanglingRule = "DANGLING_RULE_DEPENDENCY"
)

// NewCardError creates a fatal configuration error for a carrier card.
func NewCardError(code, carrier, service, msg string) *ConfigError {
	return &ConfigError{
		Code:     code,
		Message:  msg,
		Severity: SeverityFatal,
		Carrier:  carrier,
		Service:  service,
	}
}
