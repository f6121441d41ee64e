package billing

import (
	"context"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// Product describes a purchasable trip.
type Product struct {
	TripID      domain.TripID
	Name        string
	Description string
	ImageURLs   []string
	// PriceUSD is in whole dollars.
	PriceUSD int64
}

// Provisioner creates a checkout payment link for a product and returns its URL.
type Provisioner interface {
	CreatePaymentLink(ctx context.Context, p Product) (string, error)
}
