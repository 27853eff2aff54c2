package alerting

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

var validate = validator.New()

// ValidationError rejects a malformed rule synchronously at create or
// update time; an invalid rule is never stored.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid alert definition: " + strings.Join(parts, "; ")
}

func validateAlert(alert *domain.Alert) error {
	fields := make(map[string]string)

	if err := validate.Struct(alert); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				fieldName := strings.ToLower(fieldError.Field())
				switch fieldError.Tag() {
				case "required":
					fields[fieldName] = fmt.Sprintf("The %s field is required.", fieldName)
				case "oneof":
					fields[fieldName] = fmt.Sprintf("The %s must be one of: %s.", fieldName, fieldError.Param())
				case "gte":
					fields[fieldName] = fmt.Sprintf("The %s must be at least %s.", fieldName, fieldError.Param())
				case "max":
					fields[fieldName] = fmt.Sprintf("The %s may not exceed %s characters.", fieldName, fieldError.Param())
				default:
					fields[fieldName] = fmt.Sprintf("The %s field is invalid.", fieldName)
				}
			}
		} else {
			fields["alert"] = err.Error()
		}
	}

	switch alert.Condition {
	case domain.ConditionBetween, domain.ConditionOutside:
		if alert.ThresholdMin > alert.ThresholdMax {
			fields["threshold_min"] = "threshold_min must not exceed threshold_max."
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
