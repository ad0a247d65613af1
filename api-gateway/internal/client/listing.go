package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type AddApartmentInput struct {
	Description string  `json:"description,omitempty"`
	Rooms       *int    `json:"rooms,omitempty"`
	Country     string  `json:"country"`
	City        string  `json:"city"`
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
}

// SearchInput mirrors the search arguments; nil fields are not sent.
type SearchInput struct {
	City        *string
	Country     *string
	Rooms       *int
	Lng         *float64
	Lat         *float64
	MaxDistance *float64
}

func (in SearchInput) values() url.Values {
	v := url.Values{}
	if in.City != nil {
		v.Set("city", *in.City)
	}
	if in.Country != nil {
		v.Set("country", *in.Country)
	}
	if in.Rooms != nil {
		v.Set("rooms", strconv.Itoa(*in.Rooms))
	}
	for name, f := range map[string]*float64{"lng": in.Lng, "lat": in.Lat, "maxDistance": in.MaxDistance} {
		if f != nil {
			v.Set(name, strconv.FormatFloat(*f, 'f', -1, 64))
		}
	}
	return v
}

// ListingClient calls listing-service.
type ListingClient struct {
	*Client
}

func NewListingClient(baseURL string, httpClient *http.Client) *ListingClient {
	return &ListingClient{Client: New(baseURL, httpClient)}
}

func (c *ListingClient) AddApartment(ctx context.Context, in AddApartmentInput) (Envelope, error) {
	return c.do(ctx, http.MethodPost, "/v1/apartments", nil, in)
}

func (c *ListingClient) Search(ctx context.Context, in SearchInput) (Envelope, error) {
	return c.do(ctx, http.MethodGet, "/v1/apartments", in.values(), nil)
}

func (c *ListingClient) FindApartment(ctx context.Context, apartmentID string) (Envelope, error) {
	return c.do(ctx, http.MethodGet, "/v1/apartments/"+url.PathEscape(apartmentID), nil, nil)
}
