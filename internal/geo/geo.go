// Package geo estimates trip distances and the battery a robot spends on them.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// WeightPenaltyPerKg is the extra energy draw per kilogram of cargo.
const WeightPenaltyPerKg = 0.1

var ErrInvalidCapacity = errors.New("battery capacity must be positive")

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EnergyProfile is the part of a robot the estimator needs.
type EnergyProfile struct {
	BatteryCapacityJoules float64
	EnergyPerMeterJoules  float64
}

func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	return nil
}

func ValidateLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}

// ValidateCoordinates must pass before DistanceMeters is called.
func ValidateCoordinates(lat, lon float64) error {
	if err := ValidateLatitude(lat); err != nil {
		return err
	}
	return ValidateLongitude(lon)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceMeters returns the great-circle distance between two coordinates.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLon*sinLon
	// rounding can push a just past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance is DistanceMeters over Points.
func Distance(from, to Point) float64 {
	return DistanceMeters(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// BatteryUsagePercent predicts the share of a full battery spent carrying
// cargoWeightKg over distanceMeters, rounded to two decimals.
func BatteryUsagePercent(profile EnergyProfile, distanceMeters, cargoWeightKg float64) (float64, error) {
	if profile.BatteryCapacityJoules <= 0 {
		return 0, ErrInvalidCapacity
	}

	base := profile.EnergyPerMeterJoules * distanceMeters
	weightPenalty := 1 + cargoWeightKg*WeightPenaltyPerKg
	usedJoules := base * weightPenalty
	percent := usedJoules / profile.BatteryCapacityJoules * 100
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return 0, fmt.Errorf("battery estimate is not finite for distance %v", distanceMeters)
	}

	return Round2(percent), nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
