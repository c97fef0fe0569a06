package services

import (
	"fmt"
	"strings"
	"time"
)

const (
	AliasMinLength = 6
	AliasMaxLength = 50
	CBULength      = 22
	PhoneMinDigits = 8
	PhoneMaxDigits = 15

	TimerSecondsMax            = 300
	BonusPercentageMax         = 100
	RotationIntervalMinMinutes = 1
	RotationIntervalMaxMinutes = 1440
)

// FieldError is a single violated rule on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError collects every field violation of a candidate record,
// in the fixed order fields are checked.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, rule, format string, args ...interface{}) {
	e.Errors = append(e.Errors, FieldError{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func isAliasChar(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// keep filters s down to runes accepted by allow, then truncates to max.
// Accepted runes are ASCII so byte length equals rune count.
func keep(s string, allow func(rune) bool, max int) string {
	var b strings.Builder
	for _, r := range s {
		if allow(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// SanitizeAlias strips everything outside [A-Za-z0-9.-] and truncates to 50 chars.
func SanitizeAlias(value string) string {
	return keep(value, isAliasChar, AliasMaxLength)
}

// SanitizeCBU keeps digits only, truncated to 22.
func SanitizeCBU(value string) string {
	return keep(value, isDigit, CBULength)
}

// SanitizePhone keeps digits only, truncated to 15.
func SanitizePhone(value string) string {
	return keep(value, isDigit, PhoneMaxDigits)
}

// ValidateAlias returns the sanitized alias, or a FieldError when it is too short.
func ValidateAlias(field, value string) (string, *FieldError) {
	alias := SanitizeAlias(value)
	if len(alias) < AliasMinLength {
		return alias, &FieldError{
			Field:   field,
			Rule:    "alias_min_length",
			Message: fmt.Sprintf("alias must have at least %d characters from [A-Za-z0-9.-], got %d", AliasMinLength, len(alias)),
		}
	}
	return alias, nil
}

// ValidateCBU returns the sanitized CBU, or a FieldError citing how many digits are missing.
func ValidateCBU(field, value string) (string, *FieldError) {
	cbu := SanitizeCBU(value)
	if len(cbu) != CBULength {
		return cbu, &FieldError{
			Field:   field,
			Rule:    "cbu_length",
			Message: fmt.Sprintf("CBU must have exactly %d digits, %d digits missing", CBULength, CBULength-len(cbu)),
		}
	}
	return cbu, nil
}

// ValidatePhone returns the sanitized phone, or a FieldError when it is too short.
// The upper bound holds by construction because sanitizing truncates to 15 digits.
func ValidatePhone(field, value string) (string, *FieldError) {
	phone := SanitizePhone(value)
	if len(phone) < PhoneMinDigits {
		return phone, &FieldError{
			Field:   field,
			Rule:    "phone_length",
			Message: fmt.Sprintf("phone must have between %d and %d digits, got %d", PhoneMinDigits, PhoneMaxDigits, len(phone)),
		}
	}
	return phone, nil
}

func validateRange(ve *ValidationError, field string, value, min, max int64) {
	if value < min || value > max {
		ve.add(field, "range", "must be between %d and %d, got %d", min, max, value)
	}
}

// storedTime normalizes t to the precision every supported driver keeps
// (mysql datetime(3)), so a written timestamp reads back unchanged.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ValidateRecord checks every field of candidate and returns its normalized form.
// lineCount is the size of the support-line catalog. A zero LastRotationTime
// is replaced with now.
func ValidateRecord(candidate ConfigurationRecord, lineCount int, now time.Time) (*ConfigurationRecord, error) {
	var ve ValidationError
	out := candidate

	if candidate.MinAmount < 0 {
		ve.add("minAmount", "min", "must be greater than or equal to 0, got %d", candidate.MinAmount)
	}
	validateRange(&ve, "timerSeconds", int64(candidate.TimerSeconds), 0, TimerSecondsMax)

	switch candidate.PaymentDestination.Kind {
	case PaymentKindAlias:
		alias, fe := ValidateAlias("paymentDestination.value", candidate.PaymentDestination.Value)
		if fe != nil {
			ve.Errors = append(ve.Errors, *fe)
		}
		out.PaymentDestination.Value = alias
	case PaymentKindCBU:
		cbu, fe := ValidateCBU("paymentDestination.value", candidate.PaymentDestination.Value)
		if fe != nil {
			ve.Errors = append(ve.Errors, *fe)
		}
		out.PaymentDestination.Value = cbu
	default:
		ve.add("paymentDestination.kind", "enum", "must be %q or %q, got %q", PaymentKindAlias, PaymentKindCBU, candidate.PaymentDestination.Kind)
	}

	validateRange(&ve, "bonusPercentage", int64(candidate.BonusPercentage), 0, BonusPercentageMax)

	supportPhone, fe := ValidatePhone("supportPhone", candidate.SupportPhone)
	if fe != nil {
		ve.Errors = append(ve.Errors, *fe)
	}
	out.SupportPhone = supportPhone

	linePhone, fe := ValidatePhone("phone", candidate.LinePhone)
	if fe != nil {
		ve.Errors = append(ve.Errors, *fe)
	}
	out.LinePhone = linePhone

	validateRange(&ve, "rotation.intervalMinutes", int64(candidate.Rotation.IntervalMinutes),
		RotationIntervalMinMinutes, RotationIntervalMaxMinutes)

	if lineCount <= 0 {
		ve.add("rotation.currentLineIndex", "catalog", "support-line catalog is empty")
	} else {
		validateRange(&ve, "rotation.currentLineIndex", int64(candidate.Rotation.CurrentLineIndex), 0, int64(lineCount-1))
	}

	if candidate.Rotation.LastRotationTime.IsZero() {
		out.Rotation.LastRotationTime = storedTime(now)
	} else if candidate.Rotation.LastRotationTime.After(now) {
		ve.add("rotation.lastRotationTime", "not_future", "must not be in the future")
	} else {
		out.Rotation.LastRotationTime = storedTime(candidate.Rotation.LastRotationTime)
	}

	if ve.HasErrors() {
		return nil, &ve
	}
	return &out, nil
}
