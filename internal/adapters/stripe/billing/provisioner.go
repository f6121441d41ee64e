package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/tourvisto/travel-planner-api/internal/ports/out/billing"
)

// Provisioner is a Stripe implementation of billing.Provisioner. Each call
// creates a product, a one-off USD price and a payment link for that price.
type Provisioner struct {
	api        *client.API
	backends   *stripe.Backends
	successURL string
}

type Option func(*Provisioner)

// WithSuccessURL redirects buyers to url after checkout.
func WithSuccessURL(url string) Option { return func(p *Provisioner) { p.successURL = url } }

// WithBackends overrides the Stripe backends (tests point them at a local server).
func WithBackends(b *stripe.Backends) Option {
	return func(p *Provisioner) { p.backends = b }
}

func NewProvisioner(secretKey string, opts ...Option) (*Provisioner, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	p := &Provisioner{}
	for _, o := range opts {
		o(p)
	}
	p.api = client.New(secretKey, p.backends)
	return p, nil
}

func (p *Provisioner) CreatePaymentLink(ctx context.Context, prod billing.Product) (string, error) {
	if prod.PriceUSD <= 0 {
		return "", fmt.Errorf("invalid price %d for trip %s", prod.PriceUSD, prod.TripID)
	}

	productParams := &stripe.ProductParams{
		Name:        stripe.String(prod.Name),
		Description: stripe.String(prod.Description),
	}
	if len(prod.ImageURLs) > 0 {
		productParams.Images = stripe.StringSlice(prod.ImageURLs)
	}
	productParams.Context = ctx
	productParams.AddMetadata("tripId", string(prod.TripID))
	product, err := p.api.Products.New(productParams)
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(prod.PriceUSD * 100),
		Product:    stripe.String(product.ID),
	}
	priceParams.Context = ctx
	price, err := p.api.Prices.New(priceParams)
	if err != nil {
		return "", fmt.Errorf("create price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(price.ID), Quantity: stripe.Int64(1)},
		},
	}
	if p.successURL != "" {
		linkParams.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type:     stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{URL: stripe.String(p.successURL)},
		}
	}
	linkParams.Context = ctx
	linkParams.AddMetadata("tripId", string(prod.TripID))
	link, err := p.api.PaymentLinks.New(linkParams)
	if err != nil {
		return "", fmt.Errorf("create payment link: %w", err)
	}
	return link.URL, nil
}
