package domain

import (
	"strconv"
	"strings"
)

// FilterTrips keeps trips whose searchable fields contain query (case-insensitive).
// Searchable fields: name, country, estimated price, duration, interests,
// group type, travel style, budget. An empty query returns trips unchanged.
func FilterTrips(trips []Trip, query string) []Trip {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return trips
	}
	out := make([]Trip, 0, len(trips))
	for _, t := range trips {
		if strings.Contains(searchText(t), q) {
			out = append(out, t)
		}
	}
	return out
}

func searchText(t Trip) string {
	duration := ""
	if t.Duration != 0 {
		duration = strconv.Itoa(int(t.Duration))
	}
	fields := []string{
		t.Name,
		t.Country,
		t.EstimatedPrice,
		duration,
		strings.Join(t.Interests, " "),
		t.GroupType,
		t.TravelStyle,
		t.Budget,
	}
	return strings.ToLower(strings.Join(fields, " "))
}
