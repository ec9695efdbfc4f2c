package geo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultMapQuestURL = "https://www.mapquestapi.com"

type MapQuestConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// HTTPClient is optional; resty builds its own client when nil.
	HTTPClient *http.Client
}

// MapQuestGeocoder calls the MapQuest geocoding API.
type MapQuestGeocoder struct {
	client *resty.Client
	apiKey string
}

func NewMapQuestGeocoder(cfg MapQuestConfig) *MapQuestGeocoder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultMapQuestURL
	}
	client := resty.New()
	if cfg.HTTPClient != nil {
		client = resty.NewWithClient(cfg.HTTPClient)
	}
	client.
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &MapQuestGeocoder{client: client, apiKey: cfg.APIKey}
}

type mapQuestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []mapQuestLocation `json:"locations"`
	} `json:"results"`
}

type mapQuestLocation struct {
	Street     string `json:"street"`
	AdminArea5 string `json:"adminArea5"`
	AdminArea3 string `json:"adminArea3"`
	AdminArea1 string `json:"adminArea1"`
	PostalCode string `json:"postalCode"`
	LatLng     struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"latLng"`
}

func (g *MapQuestGeocoder) Geocode(ctx context.Context, query string) ([]Location, error) {
	var body mapQuestResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":      g.apiKey,
			"location": query,
		}).
		SetResult(&body).
		Get("/geocoding/v1/address")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}
	if body.Info.StatusCode != 0 {
		return nil, fmt.Errorf("%w: mapquest status %d: %s",
			ErrUpstream, body.Info.StatusCode, strings.Join(body.Info.Messages, "; "))
	}

	var locations []Location
	for _, result := range body.Results {
		for _, l := range result.Locations {
			locations = append(locations, Location{
				Latitude:         l.LatLng.Lat,
				Longitude:        l.LatLng.Lng,
				FormattedAddress: formatAddress(l),
				Street:           l.Street,
				City:             l.AdminArea5,
				State:            l.AdminArea3,
				Zipcode:          l.PostalCode,
				Country:          l.AdminArea1,
			})
		}
	}
	return locations, nil
}

func formatAddress(l mapQuestLocation) string {
	var parts []string
	for _, p := range []string{l.Street, l.AdminArea5, strings.TrimSpace(l.AdminArea3 + " " + l.PostalCode), l.AdminArea1} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
