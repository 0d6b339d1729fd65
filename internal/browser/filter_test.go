package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/servicelog/internal/models"
)

func sampleRecords() []models.ServiceRecord {
	return []models.ServiceRecord{
		{ID: "a", ProviderID: "ACME", ServiceOrder: "SO-100", CarID: "CAR-1", Type: models.ServicePlanned, StartDate: "2024-01-01", ServiceDescription: "Oil change"},
		{ID: "b", ProviderID: "Bolt", ServiceOrder: "SO-200", CarID: "CAR-2", Type: models.ServiceUnplanned, StartDate: "2024-06-15", ServiceDescription: "Brake pads"},
		{ID: "c", ProviderID: "Crux", ServiceOrder: "SO-300", CarID: "CAR-3", Type: models.ServiceEmergency, StartDate: "2024-12-31", ServiceDescription: "Radiator leak"},
	}
}

func ids(recs []models.ServiceRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "zero filter matches all", filter: Filter{}, want: []string{"a", "b", "c"}},
		{name: "type all", filter: Filter{Type: TypeAll}, want: []string{"a", "b", "c"}},
		{name: "type unplanned", filter: Filter{Type: "unplanned"}, want: []string{"b"}},
		{name: "date range", filter: Filter{From: "2024-01-01", To: "2024-06-30"}, want: []string{"a", "b"}},
		{name: "from is inclusive", filter: Filter{From: "2024-12-31"}, want: []string{"c"}},
		{name: "to is inclusive", filter: Filter{To: "2024-01-01"}, want: []string{"a"}},
		{name: "search description only", filter: Filter{Search: "radiator"}, want: []string{"c"}},
		{name: "search is case insensitive", filter: Filter{Search: "so-2"}, want: []string{"b"}},
		{name: "search car id", filter: Filter{Search: "CAR-"}, want: []string{"a", "b", "c"}},
		{name: "search provider", filter: Filter{Search: "acme"}, want: []string{"a"}},
		{name: "type and search disagree", filter: Filter{Search: "radiator", Type: "planned"}, want: []string{}},
		{name: "all filters combined", filter: Filter{Search: "brake", Type: "unplanned", From: "2024-06-01", To: "2024-06-30"}, want: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(sampleRecords())))
		})
	}
}

func TestFilter_ApplyEmptyInput(t *testing.T) {
	assert.Empty(t, Filter{Search: "x"}.Apply(nil))
}
