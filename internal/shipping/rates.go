package shipping

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrCountryRequired is returned when a rate request has no destination country.
var ErrCountryRequired = errors.New("destination country is required")

// RateReq describes a shipping rate request.
type RateReq struct {
	OriginCountry      string
	DestinationCountry string
	State              string
	PostalCode         string
}

// Rate describes a returned shipping rate option. Cost is in minor units.
type Rate struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Cost          int64  `json:"cost"`
	EstimatedDays string `json:"estimated_days"`
}

// Client defines the behaviour required to quote shipping rates.
type Client interface {
	Rates(ctx context.Context, r RateReq) ([]Rate, error)
}

// RateTable quotes flat rates split into domestic and international tiers.
type RateTable struct {
	Domestic      []Rate
	International []Rate
}

// DefaultRateTable is the storefront's standard flat-rate table.
func DefaultRateTable() RateTable {
	return RateTable{
		Domestic: []Rate{
			{ID: "standard", Name: "Standard Shipping", Cost: 599, EstimatedDays: "3-5"},
			{ID: "express", Name: "Express Shipping", Cost: 1499, EstimatedDays: "1-2"},
		},
		International: []Rate{
			{ID: "standard", Name: "International Standard", Cost: 2499, EstimatedDays: "7-14"},
			{ID: "express", Name: "International Express", Cost: 4999, EstimatedDays: "3-5"},
		},
	}
}

// Rates returns the tier matching the destination, cheapest first.
func (t RateTable) Rates(_ context.Context, r RateReq) ([]Rate, error) {
	dest := strings.ToUpper(strings.TrimSpace(r.DestinationCountry))
	if dest == "" {
		return nil, ErrCountryRequired
	}
	tier := t.International
	if IsDomestic(r.OriginCountry, dest) {
		tier = t.Domestic
	}
	out := append([]Rate(nil), tier...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	return out, nil
}

// IsDomestic compares ISO country codes case-insensitively.
func IsDomestic(origin, destination string) bool {
	return strings.EqualFold(strings.TrimSpace(origin), strings.TrimSpace(destination))
}
