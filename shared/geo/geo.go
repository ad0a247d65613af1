// Package geo validates coordinates before they reach the store and converts
// between the units callers use and the units the store indexes in.
package geo

import (
	"math"

	"github.com/flathunt/platform/shared/models"
)

const (
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
)

// ValidateCoordinates reports whether lng lies in [-180, 180] and lat in [-90, 90].
func ValidateCoordinates(lng, lat float64) bool {
	if math.IsNaN(lng) || math.IsNaN(lat) {
		return false
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return false
	}
	if lat < MinLatitude || lat > MaxLatitude {
		return false
	}
	return true
}

// KilometersToMeters converts a caller-facing distance into the store's unit.
func KilometersToMeters(km float64) float64 {
	return km * 1000
}

// NewPoint builds a GeoJSON point; coordinates are ordered [lng, lat].
func NewPoint(lng, lat float64) models.Point {
	return models.Point{Type: models.PointType, Coordinates: [2]float64{lng, lat}}
}
