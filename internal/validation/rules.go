// Package validation holds the field rules a service log must satisfy before it
// can be committed. Drafts are never validated.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/servicelog/internal/models"
)

// Code identifies which rule a field failed.
type Code string

const (
	CodeRequired    Code = "required"
	CodeOutOfRange  Code = "out_of_range"
	CodeInvalidEnum Code = "invalid_enum"
)

// FieldError describes the first failing rule of a single field.
type FieldError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// FieldErrors maps a field name (its JSON key) to the rule it failed.
type FieldErrors map[string]FieldError

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for name := range e {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, name := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e[name].Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages flattens the errors into field -> message.
func (e FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for name, fe := range e {
		out[name] = fe.Message
	}
	return out
}

// AsFieldErrors unwraps FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ValidatedRecord carries the typed fields of a form that passed every rule.
type ValidatedRecord struct {
	ProviderID         string
	ServiceOrder       string
	CarID              string
	Odometer           float64
	EngineHours        float64
	StartDate          string
	EndDate            string
	Type               models.ServiceType
	ServiceDescription string
}

// Record builds a committed service log from the validated fields.
func (v ValidatedRecord) Record(id string, createdAt time.Time) models.ServiceRecord {
	return models.ServiceRecord{
		ID:                 id,
		ProviderID:         v.ProviderID,
		ServiceOrder:       v.ServiceOrder,
		CarID:              v.CarID,
		Odometer:           v.Odometer,
		EngineHours:        v.EngineHours,
		StartDate:          v.StartDate,
		EndDate:            v.EndDate,
		Type:               v.Type,
		ServiceDescription: v.ServiceDescription,
		CreatedAt:          createdAt,
	}
}

// candidate mirrors models.FormData with the rule tags attached.
type candidate struct {
	ProviderID         string   `json:"providerId" validate:"required"`
	ServiceOrder       string   `json:"serviceOrder" validate:"required"`
	CarID              string   `json:"carId" validate:"required"`
	Odometer           *float64 `json:"odometer" validate:"required,finite,min=0"`
	EngineHours        *float64 `json:"engineHours" validate:"required,finite,min=0"`
	StartDate          string   `json:"startDate" validate:"required"`
	EndDate            string   `json:"endDate" validate:"required"`
	Type               string   `json:"type" validate:"required,oneof=planned unplanned emergency"`
	ServiceDescription string   `json:"serviceDescription" validate:"required"`
}

var labels = map[string]string{
	"providerId":         "Provider ID",
	"serviceOrder":       "Service order",
	"carId":              "Car ID",
	"odometer":           "Odometer",
	"engineHours":        "Engine hours",
	"startDate":          "Start date",
	"endDate":            "End date",
	"type":               "Type",
	"serviceDescription": "Service description",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})
	return v
}

// Validate checks every field of data and reports the first failing rule of each.
func Validate(data models.FormData) (ValidatedRecord, FieldErrors) {
	c := candidate{
		ProviderID:         data.ProviderID,
		ServiceOrder:       data.ServiceOrder,
		CarID:              data.CarID,
		Odometer:           data.Odometer,
		EngineHours:        data.EngineHours,
		StartDate:          data.StartDate,
		EndDate:            data.EndDate,
		Type:               string(data.Type),
		ServiceDescription: data.ServiceDescription,
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			// Only reachable with a malformed candidate type.
			panic(err)
		}
		out := make(FieldErrors, len(verrs))
		for _, fe := range verrs {
			if _, seen := out[fe.Field()]; seen {
				continue
			}
			out[fe.Field()] = toFieldError(fe)
		}
		return ValidatedRecord{}, out
	}

	return ValidatedRecord{
		ProviderID:         c.ProviderID,
		ServiceOrder:       c.ServiceOrder,
		CarID:              c.CarID,
		Odometer:           *c.Odometer,
		EngineHours:        *c.EngineHours,
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
		Type:               models.ServiceType(c.Type),
		ServiceDescription: c.ServiceDescription,
	}, nil
}

func toFieldError(fe validator.FieldError) FieldError {
	label := labels[fe.Field()]
	switch fe.Tag() {
	case "finite":
		return FieldError{Code: CodeOutOfRange, Message: label + " must be a finite number"}
	case "min":
		return FieldError{Code: CodeOutOfRange, Message: label + " must be positive"}
	case "oneof":
		return FieldError{Code: CodeInvalidEnum, Message: label + " must be one of planned, unplanned, emergency"}
	default:
		return FieldError{Code: CodeRequired, Message: label + " is required"}
	}
}
