// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package geo computes great-circle distances between coordinates and
// formats them for display.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Coordinate is a point in decimal degrees. Ranges are not validated.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ErrInvalidCoordinate is returned when a coordinate string cannot be parsed.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// CalculateDistance returns the haversine distance between p1 and p2 in kilometers.
func CalculateDistance(p1, p2 Coordinate) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	dLat := (p2.Lat - p1.Lat) * math.Pi / 180
	dLng := (p2.Lng - p1.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// FormatDistance renders km as whole meters below 1 km ("500 m") and as
// kilometers with one decimal otherwise ("2.5 km").
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (Coordinate, error) {
	a, b, err := splitPair(s)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: a, Lng: b}, nil
}

// ParseLngLat parses "lng,lat", the order routing APIs use.
func ParseLngLat(s string) (Coordinate, error) {
	a, b, err := splitPair(s)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: b, Lng: a}, nil
}

// LngLat formats c as "lng,lat".
func (c Coordinate) LngLat() string {
	return strconv.FormatFloat(c.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

func splitPair(s string) (float64, float64, error) {
	first, second, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q must be two comma-separated numbers", ErrInvalidCoordinate, s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidCoordinate, s, err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(second), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidCoordinate, s, err)
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, 0, fmt.Errorf("%w: %q is not finite", ErrInvalidCoordinate, s)
	}
	return a, b, nil
}
