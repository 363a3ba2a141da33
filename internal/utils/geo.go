// internal/utils/geo.go
package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean earth radius used by every distance in the service.
const EarthRadiusKm = 6371.0

var ErrMalformedCoordinates = errors.New("coordinates must be \"<longitude>,<latitude>\"")

// Point is a WGS84 coordinate pair.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// HaversineDistance returns the great-circle distance between two points in kilometers.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm is HaversineDistance over Points.
func DistanceKm(a, b Point) float64 {
	return HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// ValidateLocation checks if location coordinates are valid
func ValidateLocation(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: must be between -90 and 90")
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: must be between -180 and 180")
	}
	return nil
}

// ParseCoordinates parses "<longitude>,<latitude>".
func ParseCoordinates(raw string) (Point, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Point{}, ErrMalformedCoordinates
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, ErrMalformedCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, ErrMalformedCoordinates
	}

	if err := ValidateLocation(lat, lon); err != nil {
		return Point{}, err
	}
	return Point{Longitude: lon, Latitude: lat}, nil
}

// BoundingBox is a coarse lat/lon rectangle enclosing a radius around a point.
// When LonUnbounded is set the rectangle spans every longitude (pole or antimeridian
// crossing) and callers must not filter on longitude.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	LonUnbounded   bool
}

// boxPaddingDeg widens the coarse box slightly so points exactly on the
// radius survive the prefilter; the exact haversine check runs afterwards.
const boxPaddingDeg = 1e-6

// BoundingBoxFor returns a box that contains every point within radiusKm of center.
func BoundingBoxFor(center Point, radiusKm float64) BoundingBox {
	angular := radiusKm/EarthRadiusKm + boxPaddingDeg*math.Pi/180
	latRad := center.Latitude * math.Pi / 180
	lonRad := center.Longitude * math.Pi / 180

	minLat := latRad - angular
	maxLat := latRad + angular

	box := BoundingBox{
		MinLat: math.Max(minLat*180/math.Pi, -90),
		MaxLat: math.Min(maxLat*180/math.Pi, 90),
	}

	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		box.LonUnbounded = true
		return box
	}

	ratio := math.Sin(angular) / math.Cos(latRad)
	if ratio >= 1 {
		box.LonUnbounded = true
		return box
	}
	deltaLon := math.Asin(ratio)
	minLon := (lonRad - deltaLon) * 180 / math.Pi
	maxLon := (lonRad + deltaLon) * 180 / math.Pi
	if minLon < -180 || maxLon > 180 {
		box.LonUnbounded = true
		return box
	}

	box.MinLon, box.MaxLon = minLon, maxLon
	return box
}
