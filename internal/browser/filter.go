package browser

import (
	"strings"

	"github.com/ukydev/servicelog/internal/models"
)

// TypeAll disables the type filter.
const TypeAll = "all"

// Filter narrows the committed record list. Zero values match everything.
type Filter struct {
	Search string
	Type   string
	From   string
	To     string
}

// Apply returns the records passing f, keeping their order.
func (f Filter) Apply(records []models.ServiceRecord) []models.ServiceRecord {
	out := make([]models.ServiceRecord, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Matches reports whether rec passes the search, type and date range checks.
// Dates compare as YYYY-MM-DD strings and both bounds are inclusive.
func (f Filter) Matches(rec models.ServiceRecord) bool {
	if !f.matchesSearch(rec) {
		return false
	}
	if f.Type != "" && f.Type != TypeAll && models.ServiceType(f.Type) != rec.Type {
		return false
	}
	if f.From != "" && rec.StartDate < f.From {
		return false
	}
	if f.To != "" && rec.StartDate > f.To {
		return false
	}
	return true
}

func (f Filter) matchesSearch(rec models.ServiceRecord) bool {
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	for _, field := range []string{rec.ProviderID, rec.ServiceOrder, rec.CarID, rec.ServiceDescription} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
