package listing

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims text fields and resolves stay type aliases.
func Normalize(d Draft) Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Location = strings.TrimSpace(d.Location)
	d.Description = strings.TrimSpace(d.Description)
	if st, ok := ParseStayType(string(d.StayType)); ok {
		d.StayType = st
	}
	images := make([]string, len(d.Images))
	for i, img := range d.Images {
		images[i] = strings.TrimSpace(img)
	}
	d.Images = images
	d.Agent.Name = strings.TrimSpace(d.Agent.Name)
	d.Agent.Phone = strings.TrimSpace(d.Agent.Phone)
	d.Agent.Email = strings.TrimSpace(d.Agent.Email)
	return d
}

// Validate checks the fields a listing must have before it is persisted.
// It returns a *ValidationError, or nil.
func Validate(d Draft) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []FieldError{{Field: "listing", Reason: err.Error()}}}
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{Field: fieldName(fe), Reason: reason(fe)})
	}
	return ve
}

// fieldName strips the struct prefix: "Draft.agent.email" becomes "agent.email".
func fieldName(fe validator.FieldError) string {
	_, name, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return name
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if strings.HasPrefix(fe.Namespace(), "Draft.images[") {
			return "must not be empty"
		}
		return "is required"
	case "gt":
		return "must be greater than 0"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Field() == "images" {
			return "must contain at least one image"
		}
		return "must not be negative"
	case "email":
		return "must be a valid email address"
	}
	return "failed " + fe.Tag()
}
