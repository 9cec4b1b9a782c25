package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a rejected caller input.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap exposes both ErrValidation and the specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string, cause error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: cause}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// gt=0 lets +Inf through; NaN and ±Inf cannot be persisted as JSON.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			return isFinite(fl.Field().Float())
		}
		return true
	})
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateLogValue checks a value about to be logged against a habit.
func ValidateLogValue(value float64) error {
	if !isFinite(value) || value < 0 {
		return NewValidationError("value", fmt.Sprintf("%s, got %v", ErrInvalidValue, value), ErrInvalidValue)
	}
	return nil
}

// ValidateDraft checks a habit draft before it is turned into a habit.
// Simple habits get their target fixed at 1, so their target is not checked.
func ValidateDraft(d HabitDraft) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Type == "" || d.Type == HabitTypeSimple {
		d.Target = 1
	}
	if err := validate.Struct(d); err != nil {
		return translate(err)
	}
	return nil
}

// ValidateHabit checks a fully merged habit, used on update paths.
func ValidateHabit(h Habit) error {
	return ValidateDraft(HabitDraft{
		Name:     h.Name,
		Type:     h.Type,
		Unit:     h.Unit,
		Target:   h.Target,
		Schedule: h.Schedule,
		Category: h.Category,
		Icon:     h.Icon,
	})
}

// ValidateMoodScore checks that a mood score is within 1..10.
func ValidateMoodScore(score int) error {
	if score < MinMoodScore || score > MaxMoodScore {
		return NewValidationError("score",
			fmt.Sprintf("mood score %d out of range [%d, %d]", score, MinMoodScore, MaxMoodScore), nil)
	}
	return nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("", err.Error(), err)
	}
	fe := verrs[0]
	// Dive errors carry the element index, e.g. "Schedule[2]".
	field, _, _ := strings.Cut(fe.StructField(), "[")
	switch field {
	case "Name":
		return NewValidationError("name", ErrHabitEmptyName.Error(), ErrHabitEmptyName)
	case "Schedule":
		if fe.Tag() == "oneof" {
			return NewValidationError("schedule", fmt.Sprintf("unknown weekday %q", fe.Value()), ErrEmptySchedule)
		}
		return NewValidationError("schedule", ErrEmptySchedule.Error(), ErrEmptySchedule)
	case "Target":
		return NewValidationError("target", ErrInvalidTarget.Error(), ErrInvalidTarget)
	case "Type":
		return NewValidationError("type", fmt.Sprintf("unknown habit type %q", fe.Value()), nil)
	}
	return NewValidationError(strings.ToLower(fe.Field()), fe.Error(), err)
}
