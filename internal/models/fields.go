package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ukydev/servicelog/internal/dates"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidNumber = errors.New("invalid number")
)

// FieldNames lists the editable fields by their JSON key, in form order.
var FieldNames = []string{
	"providerId",
	"serviceOrder",
	"carId",
	"odometer",
	"engineHours",
	"startDate",
	"endDate",
	"type",
	"serviceDescription",
}

// SetField assigns a raw text value to the named field. An empty number clears it.
func (f *FormData) SetField(name, raw string) error {
	switch name {
	case "providerId":
		f.ProviderID = raw
	case "serviceOrder":
		f.ServiceOrder = raw
	case "carId":
		f.CarID = raw
	case "odometer":
		n, err := parseNumber(name, raw)
		if err != nil {
			return err
		}
		f.Odometer = n
	case "engineHours":
		n, err := parseNumber(name, raw)
		if err != nil {
			return err
		}
		f.EngineHours = n
	case "startDate":
		f.StartDate = raw
	case "endDate":
		f.EndDate = raw
	case "type":
		f.Type = ServiceType(raw)
	case "serviceDescription":
		f.ServiceDescription = raw
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

func parseNumber(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(v) || strings.ContainsAny(raw, "xX") {
		return nil, fmt.Errorf("%w for %s: %q", ErrInvalidNumber, name, raw)
	}
	return &v, nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// CheckNumbers rejects odometer or engine hours values that are not finite.
func (f FormData) CheckNumbers() error {
	if f.Odometer != nil && !finite(*f.Odometer) {
		return fmt.Errorf("%w for odometer: %v", ErrInvalidNumber, *f.Odometer)
	}
	if f.EngineHours != nil && !finite(*f.EngineHours) {
		return fmt.Errorf("%w for engineHours: %v", ErrInvalidNumber, *f.EngineHours)
	}
	return nil
}

// WithDerivedEndDate returns f with EndDate set to the day after StartDate when
// StartDate differs from prev. Otherwise f is returned unchanged, so a manual
// EndDate sticks until StartDate moves again.
func (f FormData) WithDerivedEndDate(prev FormData) FormData {
	if f.StartDate == "" || f.StartDate == prev.StartDate {
		return f
	}
	if end, ok := dates.NextDay(f.StartDate); ok {
		f.EndDate = end
	}
	return f
}
