package transport

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/planit/backend/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// omitempty only skips nil pointers, so a pointer to "" needs its own rule.
	_ = v.RegisterValidation("date_or_empty", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse(domain.DateLayout, s)
		return err == nil
	})
	return v
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

type ProfileUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=254"`
}

type TaskRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=2000"`
	Status      string            `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    string            `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     string            `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime   string            `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime     string            `json:"end_time" validate:"omitempty,datetime=15:04"`
	Metadata    map[string]string `json:"metadata"`
}

// TaskUpdateRequest is a partial update; an empty due_date clears it.
type TaskUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date" validate:"omitempty,date_or_empty"`
	StartTime   *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime     *string `json:"end_time" validate:"omitempty,datetime=15:04"`
}

type AssistantRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// Validate checks struct tags and reports failures as INVALID domain errors
// naming the offending fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
	}
	return domain.WrapError(domain.ErrCodeInvalid, "invalid fields: "+strings.Join(fields, ", "), err)
}
