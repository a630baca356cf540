// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package maps

import (
	"errors"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/places"
)

// Sentinel errors for upstream failures.
var (
	// ErrUnavailable wraps circuit-breaker and transport failures.
	ErrUnavailable = errors.New("maps: upstream unavailable")

	// ErrBadStatus is returned for API-level error statuses other than
	// ZERO_RESULTS (which is a valid empty result).
	ErrBadStatus = errors.New("maps: bad response status")
)

// GeoContext is the parsed reverse-geocode result.
type GeoContext struct {
	City             string  `json:"city"`
	State            string  `json:"state"`
	Country          string  `json:"country"`
	CityTier         string  `json:"cityTier"`
	FormattedAddress string  `json:"formattedAddress"`
	Street           string  `json:"street,omitempty"`
	Sublocality      string  `json:"sublocality,omitempty"`
	PostalCode       string  `json:"postalCode,omitempty"`
	PlusCode         string  `json:"plusCode,omitempty"`
	LocationType     string  `json:"locationType,omitempty"`
	ViewportAreaKm2  float64 `json:"viewportAreaKm2,omitempty"`
}

// UnknownGeoContext is returned when geocoding yields nothing usable.
func UnknownGeoContext() GeoContext {
	return GeoContext{
		City:     "Unknown",
		State:    "Unknown",
		Country:  "Unknown",
		CityTier: TierDefault,
	}
}

// MovementContext carries the road and foot-traffic signals used to derive
// a movement type.
type MovementContext struct {
	RoadType           string `json:"roadType"` // highway, arterial, local
	NearJunction       bool   `json:"nearJunction"`
	PedestrianFriendly bool   `json:"pedestrianFriendly"`
}

// Meta reports cache behavior per call, used for profile provenance.
type Meta struct {
	Cached       bool `json:"cached"`
	NetworkCalls int  `json:"network_calls"`
}

// merge folds another call's meta into this one.
func (m *Meta) merge(other Meta) {
	m.Cached = m.Cached && other.Cached
	m.NetworkCalls += other.NetworkCalls
}

// geocodeResponse is the wire shape of the Geocoding API response.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		PlusCode struct {
			GlobalCode string `json:"global_code"`
		} `json:"plus_code"`
		Geometry struct {
			LocationType string `json:"location_type"`
			Viewport     struct {
				Northeast latLng `json:"northeast"`
				Southwest latLng `json:"southwest"`
			} `json:"viewport"`
		} `json:"geometry"`
	} `json:"results"`
}

// nearbyResponse is the wire shape of the Places Nearby Search response.
type nearbyResponse struct {
	Status        string `json:"status"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		Types            []string `json:"types"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		BusinessStatus   string   `json:"business_status"`
		Vicinity         string   `json:"vicinity"`
		Geometry         struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// detailsResponse is the wire shape of the Place Details response.
type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int    `json:"user_ratings_total"`
		BusinessStatus   string `json:"business_status"`
		EditorialSummary struct {
			Overview string `json:"overview"`
		} `json:"editorial_summary"`
	} `json:"result"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// toPlaces converts a nearby response page into domain places.
func (r *nearbyResponse) toPlaces() []places.Place {
	out := make([]places.Place, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, places.Place{
			PlaceID:          res.PlaceID,
			Name:             res.Name,
			Types:            res.Types,
			Latitude:         res.Geometry.Location.Lat,
			Longitude:        res.Geometry.Location.Lng,
			Rating:           res.Rating,
			UserRatingsTotal: res.UserRatingsTotal,
			BusinessStatus:   res.BusinessStatus,
			Vicinity:         res.Vicinity,
		})
	}
	return out
}
