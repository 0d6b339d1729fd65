package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/servicelog/internal/models"
)

func validForm() models.FormData {
	return models.FormData{
		ProviderID:         "P1",
		ServiceOrder:       "SO-100",
		CarID:              "CAR-7",
		Odometer:           models.Number(12500),
		EngineHours:        models.Number(340.5),
		StartDate:          "2024-03-10",
		EndDate:            "2024-03-11",
		Type:               models.ServiceUnplanned,
		ServiceDescription: "Replaced brake pads",
	}
}

func TestValidate_Valid(t *testing.T) {
	rec, errs := Validate(validForm())
	require.Nil(t, errs)
	assert.Equal(t, "P1", rec.ProviderID)
	assert.Equal(t, 12500.0, rec.Odometer)
	assert.Equal(t, 340.5, rec.EngineHours)
	assert.Equal(t, models.ServiceUnplanned, rec.Type)
}

func TestValidate_SingleMissingField(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*models.FormData)
	}{
		{"providerId", func(f *models.FormData) { f.ProviderID = "" }},
		{"serviceOrder", func(f *models.FormData) { f.ServiceOrder = "" }},
		{"carId", func(f *models.FormData) { f.CarID = "" }},
		{"odometer", func(f *models.FormData) { f.Odometer = nil }},
		{"engineHours", func(f *models.FormData) { f.EngineHours = nil }},
		{"startDate", func(f *models.FormData) { f.StartDate = "" }},
		{"endDate", func(f *models.FormData) { f.EndDate = "" }},
		{"type", func(f *models.FormData) { f.Type = "" }},
		{"serviceDescription", func(f *models.FormData) { f.ServiceDescription = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			_, errs := Validate(form)
			require.Len(t, errs, 1)
			fe, ok := errs[tt.field]
			require.True(t, ok, "expected error for %s, got %v", tt.field, errs)
			assert.Equal(t, CodeRequired, fe.Code)
			assert.Contains(t, fe.Message, "is required")
		})
	}
}

func TestValidate_NumericRange(t *testing.T) {
	form := validForm()
	form.Odometer = models.Number(-1)
	form.EngineHours = models.Number(-1)

	_, errs := Validate(form)
	require.Len(t, errs, 2)
	assert.Equal(t, FieldError{Code: CodeOutOfRange, Message: "Odometer must be positive"}, errs["odometer"])
	assert.Equal(t, FieldError{Code: CodeOutOfRange, Message: "Engine hours must be positive"}, errs["engineHours"])

	form.Odometer = models.Number(0)
	form.EngineHours = models.Number(0)
	_, errs = Validate(form)
	assert.Nil(t, errs)
}

func TestValidate_NonFiniteNumbers(t *testing.T) {
	form := validForm()
	form.Odometer = models.Number(math.Inf(1))
	form.EngineHours = models.Number(math.NaN())

	_, errs := Validate(form)
	require.Len(t, errs, 2)
	assert.Equal(t, FieldError{Code: CodeOutOfRange, Message: "Odometer must be a finite number"}, errs["odometer"])
	assert.Equal(t, FieldError{Code: CodeOutOfRange, Message: "Engine hours must be a finite number"}, errs["engineHours"])
}

func TestValidate_InvalidEnum(t *testing.T) {
	form := validForm()
	form.Type = "scheduled"

	_, errs := Validate(form)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeInvalidEnum, errs["type"].Code)
}

func TestValidate_AllFieldsChecked(t *testing.T) {
	_, errs := Validate(models.FormData{})
	assert.Len(t, errs, 9)
	assert.Equal(t, "Provider ID is required", errs.Messages()["providerId"])
}

func TestValidate_NoChronologyCheck(t *testing.T) {
	form := validForm()
	form.StartDate = "2024-05-01"
	form.EndDate = "2024-01-01"

	_, errs := Validate(form)
	assert.Nil(t, errs)
}

func TestFieldErrors_AsError(t *testing.T) {
	_, errs := Validate(models.FormData{ProviderID: "P1"})
	var err error = errs

	got, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.NotContains(t, got, "providerId")
	assert.Contains(t, err.Error(), "carId: Car ID is required")
}
