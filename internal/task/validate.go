package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Draft is the free-text part of a task form.
type Draft struct {
	Title       string
	Description string
}

type Violation string

const (
	EmptyTitle         Violation = "empty_title"
	TitleTooLong       Violation = "title_too_long"
	DescriptionTooLong Violation = "description_too_long"
)

func (v Violation) Message() string {
	switch v {
	case EmptyTitle:
		return "Task title is required"
	case TitleTooLong:
		return fmt.Sprintf("Title must be under %d characters", MaxTitleLength)
	case DescriptionTooLong:
		return fmt.Sprintf("Description must be under %d characters", MaxDescriptionLength)
	default:
		return string(v)
	}
}

// ValidationError lists the failing fields of a Draft. An empty field means
// that field passed.
type ValidationError struct {
	Title       Violation
	Description Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 2)
	if e.Title != "" {
		parts = append(parts, "title: "+e.Title.Message())
	}
	if e.Description != "" {
		parts = append(parts, "description: "+e.Description.Message())
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

// Fields maps form field names to user-facing messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, 2)
	if e.Title != "" {
		fields["title"] = e.Title.Message()
	}
	if e.Description != "" {
		fields["description"] = e.Description.Message()
	}
	return fields
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(err)
	}
	v.RegisterStructValidationMapRules(map[string]string{
		"Title":       fmt.Sprintf("notblank,max=%d", MaxTitleLength),
		"Description": fmt.Sprintf("max=%d", MaxDescriptionLength),
	}, Draft{})
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validate checks d against the form limits and returns nil or a
// *ValidationError. Lengths are counted in characters on the raw input.
func Validate(d Draft) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Title":
			if fe.Tag() == "notblank" {
				out.Title = EmptyTitle
			} else {
				out.Title = TitleTooLong
			}
		case "Description":
			out.Description = DescriptionTooLong
		}
	}
	return out
}
