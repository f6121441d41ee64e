package domain

import "testing"

func TestFilterTrips_MatchesAcrossFields(t *testing.T) {
	t.Parallel()

	trips := []Trip{
		{ID: "t1", TripDetail: TripDetail{Name: "Alpine Escape", Country: "Switzerland", Budget: "Luxury", Duration: 7}},
		{ID: "t2", TripDetail: TripDetail{Name: "Street Food Crawl", Country: "Thailand", Interests: StringList{"Food", "Nightlife"}}},
		{ID: "t3", TripDetail: TripDetail{Name: "Family Beach", Country: "Spain", GroupType: "Family", EstimatedPrice: "$900"}},
	}

	cases := []struct {
		q    string
		want []TripID
	}{
		{q: "", want: []TripID{"t1", "t2", "t3"}},
		{q: "  SWITZ ", want: []TripID{"t1"}},
		{q: "nightlife", want: []TripID{"t2"}},
		{q: "family", want: []TripID{"t3"}},
		{q: "$900", want: []TripID{"t3"}},
		{q: "7", want: []TripID{"t1"}},
		{q: "antarctica", want: []TripID{}},
	}
	for _, tc := range cases {
		got := FilterTrips(trips, tc.q)
		if len(got) != len(tc.want) {
			t.Fatalf("FilterTrips(%q) len=%d, want %d", tc.q, len(got), len(tc.want))
		}
		for i := range got {
			if got[i].ID != tc.want[i] {
				t.Fatalf("FilterTrips(%q)[%d]=%s, want %s", tc.q, i, got[i].ID, tc.want[i])
			}
		}
	}
}
