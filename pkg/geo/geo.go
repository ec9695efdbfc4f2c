// Package geo resolves free-text locations to coordinates and builds
// spherical containment queries.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// EarthRadiusKM is the Earth radius used to turn distances into radians.
const EarthRadiusKM = 6378.0

var (
	// ErrNotFound is returned when the geocoder has no match for a query.
	ErrNotFound = errors.New("location not found")
	// ErrUpstream wraps transport, quota and decoding failures of a geocoder.
	ErrUpstream = errors.New("geocoding service failure")
	// ErrInvalidDistance is returned for negative or non-finite distances.
	ErrInvalidDistance = errors.New("invalid distance")
)

// Location is one geocoding match.
type Location struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
	Street           string  `json:"street,omitempty"`
	City             string  `json:"city"`
	State            string  `json:"state,omitempty"`
	Zipcode          string  `json:"zipcode,omitempty"`
	Country          string  `json:"country"`
}

// Geocoder looks up a free-text query and returns matches, best first.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]Location, error)
}

// Point is a GeoJSON point stored as [longitude, latitude].
type Point struct {
	Type             string    `json:"type" bson:"type"`
	Coordinates      []float64 `json:"coordinates" bson:"coordinates"`
	FormattedAddress string    `json:"formattedAddress,omitempty" bson:"formattedAddress,omitempty"`
	Street           string    `json:"street,omitempty" bson:"street,omitempty"`
	City             string    `json:"city,omitempty" bson:"city,omitempty"`
	State            string    `json:"state,omitempty" bson:"state,omitempty"`
	Zipcode          string    `json:"zipcode,omitempty" bson:"zipcode,omitempty"`
	Country          string    `json:"country,omitempty" bson:"country,omitempty"`
}

// NewPoint converts a geocoding match to a GeoJSON point with its address
// details.
func NewPoint(loc Location) Point {
	return Point{
		Type:             "Point",
		Coordinates:      []float64{loc.Longitude, loc.Latitude},
		FormattedAddress: loc.FormattedAddress,
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.Zipcode,
		Country:          loc.Country,
	}
}

// RadiusInRadians converts a distance in kilometers to an angular radius.
func RadiusInRadians(distanceKM float64) float64 {
	return distanceKM / EarthRadiusKM
}

// WithinSphere matches documents whose point in field lies within radians
// of center.
func WithinSphere(field string, center Location, radians float64) bson.D {
	return bson.D{{Key: field, Value: bson.D{
		{Key: "$geoWithin", Value: bson.D{
			{Key: "$centerSphere", Value: bson.A{
				bson.A{center.Longitude, center.Latitude},
				radians,
			}},
		}},
	}}}
}

// Resolver picks the first geocoding match for a query.
type Resolver struct {
	geocoder Geocoder
}

func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// Resolve geocodes query once. Zero matches yield ErrNotFound; geocoder
// failures are returned wrapped in ErrUpstream.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Location, error) {
	matches, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	loc := matches[0]
	return &loc, nil
}

// ParseDistance parses a distance in kilometers. Zero is allowed and
// matches only coincident points.
func ParseDistance(raw string) (float64, error) {
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistance, raw)
	}
	return d, nil
}
