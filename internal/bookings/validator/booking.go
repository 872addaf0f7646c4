package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"darshan/pkg/logger"
	"darshan/pkg/model"
)

const (
	adultMinAge = 18
	childMaxAge = 17
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate     *validator.Validate
	logger       *logger.Logger
	maxAttendees int
}

func NewBookingValidator(log *logger.Logger, maxAttendees int) *BookingValidator {
	return &BookingValidator{
		validate:     validator.New(),
		logger:       log,
		maxAttendees: maxAttendees,
	}
}

// ValidateRequest rejects malformed input before any capacity check is
// attempted.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}

	var errs ValidationErrors

	if req.Date.IsZero() {
		errs = append(errs, ValidationError{
			Field:   "Date",
			Message: "date is required",
		})
	}

	for i, adult := range req.Adults {
		if adult.Age < adultMinAge {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Adults[%d].Age", i),
				Message: fmt.Sprintf("adult age must be at least %d, got %d", adultMinAge, adult.Age),
			})
		}
	}

	for i, child := range req.Children {
		if child.Age > childMaxAge {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Children[%d].Age", i),
				Message: fmt.Sprintf("child age must be at most %d, got %d", childMaxAge, child.Age),
			})
		}
	}

	if total := len(req.Adults) + len(req.Children); total > v.maxAttendees {
		errs = append(errs, ValidationError{
			Field:   "Adults",
			Message: fmt.Sprintf("attendee count (%d) exceeds the per-booking maximum (%d)", total, v.maxAttendees),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *BookingValidator) ValidatePaymentUpdate(update *model.PaymentUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +919876543210)", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
