package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Payphone-Digital/locatory/pkg/circuit"
)

// BreakerGeocoder fails fast while the wrapped geocoder keeps failing.
// Zero-match lookups count as successes.
type BreakerGeocoder struct {
	next    Geocoder
	breaker *circuit.Breaker
}

func NewBreakerGeocoder(next Geocoder, breaker *circuit.Breaker) *BreakerGeocoder {
	return &BreakerGeocoder{next: next, breaker: breaker}
}

func (g *BreakerGeocoder) Geocode(ctx context.Context, query string) ([]Location, error) {
	var locations []Location
	err := g.breaker.Execute(func() error {
		var err error
		locations, err = g.next.Geocode(ctx, query)
		return err
	})
	if errors.Is(err, circuit.ErrCircuitOpen) || errors.Is(err, circuit.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return locations, err
}
