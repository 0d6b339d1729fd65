package models

import (
	"time"
)

// ServiceType classifies a service event.
type ServiceType string

const (
	ServicePlanned   ServiceType = "planned"
	ServiceUnplanned ServiceType = "unplanned"
	ServiceEmergency ServiceType = "emergency"
)

// ServiceTypes lists the accepted service types in display order.
var ServiceTypes = []ServiceType{ServicePlanned, ServiceUnplanned, ServiceEmergency}

// IsValidServiceType checks if a service type is one of the known literals
func IsValidServiceType(t ServiceType) bool {
	switch t {
	case ServicePlanned, ServiceUnplanned, ServiceEmergency:
		return true
	default:
		return false
	}
}

// FormData holds the editable fields of a service log. Numbers are pointers so
// that an absent value can be told apart from zero; drafts may hold partial data.
type FormData struct {
	ProviderID         string      `json:"providerId"`
	ServiceOrder       string      `json:"serviceOrder"`
	CarID              string      `json:"carId"`
	Odometer           *float64    `json:"odometer"`
	EngineHours        *float64    `json:"engineHours"`
	StartDate          string      `json:"startDate"`
	EndDate            string      `json:"endDate"`
	Type               ServiceType `json:"type"`
	ServiceDescription string      `json:"serviceDescription"`
}

// Equal reports full-value equality with another form snapshot.
func (f FormData) Equal(o FormData) bool {
	return f.ProviderID == o.ProviderID &&
		f.ServiceOrder == o.ServiceOrder &&
		f.CarID == o.CarID &&
		equalNumber(f.Odometer, o.Odometer) &&
		equalNumber(f.EngineHours, o.EngineHours) &&
		f.StartDate == o.StartDate &&
		f.EndDate == o.EndDate &&
		f.Type == o.Type &&
		f.ServiceDescription == o.ServiceDescription
}

// Clone returns a deep copy; the numeric pointers are not shared.
func (f FormData) Clone() FormData {
	out := f
	out.Odometer = cloneNumber(f.Odometer)
	out.EngineHours = cloneNumber(f.EngineHours)
	return out
}

// EmptyForm returns the blank entry template with the given default dates.
func EmptyForm(startDate, endDate string) FormData {
	return FormData{
		Odometer:    Number(0),
		EngineHours: Number(0),
		StartDate:   startDate,
		EndDate:     endDate,
		Type:        ServicePlanned,
	}
}

// Number returns a pointer to v.
func Number(v float64) *float64 {
	return &v
}

func equalNumber(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneNumber(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// ServiceRecord represents a committed vehicle service log.
type ServiceRecord struct {
	ID                 string      `json:"id"`
	ProviderID         string      `json:"providerId"`
	ServiceOrder       string      `json:"serviceOrder"`
	CarID              string      `json:"carId"`
	Odometer           float64     `json:"odometer"`
	EngineHours        float64     `json:"engineHours"`
	StartDate          string      `json:"startDate"`
	EndDate            string      `json:"endDate"`
	Type               ServiceType `json:"type"`
	ServiceDescription string      `json:"serviceDescription"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// Fields returns the editable part of the record.
func (r ServiceRecord) Fields() FormData {
	return FormData{
		ProviderID:         r.ProviderID,
		ServiceOrder:       r.ServiceOrder,
		CarID:              r.CarID,
		Odometer:           Number(r.Odometer),
		EngineHours:        Number(r.EngineHours),
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		Type:               r.Type,
		ServiceDescription: r.ServiceDescription,
	}
}

// ServiceLogDraft is a named, resumable snapshot of in-progress form values.
type ServiceLogDraft struct {
	ID string `json:"id"`
	FormData
	IsSaved   bool       `json:"isSaved"`
	LastSaved *time.Time `json:"lastSaved,omitempty"`
}

// Fields returns the draft values without its bookkeeping fields.
func (d ServiceLogDraft) Fields() FormData {
	return d.FormData.Clone()
}

// Clone returns a deep copy of the draft.
func (d ServiceLogDraft) Clone() ServiceLogDraft {
	out := d
	out.FormData = d.FormData.Clone()
	if d.LastSaved != nil {
		t := *d.LastSaved
		out.LastSaved = &t
	}
	return out
}
