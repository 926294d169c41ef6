package services

import (
	"math"

	"github.com/ghuser/itemlocations/services/item/domain/models"
)

// Reference point for direction and distance: New York City.
const (
	ReferenceLatitude  = 40.7128
	ReferenceLongitude = -74.0060

	earthRadiusMiles = 3958.7613
)

// DirectionFromReference returns the quadrant of (lat, lon) relative to the
// reference point. Points on an axis fall to the south or west side.
func DirectionFromReference(lat, lon float64) models.Direction {
	north := lat > ReferenceLatitude
	east := lon > ReferenceLongitude
	switch {
	case north && east:
		return models.DirectionNE
	case north:
		return models.DirectionNW
	case east:
		return models.DirectionSE
	default:
		return models.DirectionSW
	}
}

// DistanceFromReference returns the great-circle distance in miles from the
// reference point, rounded to two decimals.
func DistanceFromReference(lat, lon float64) float64 {
	lat1 := radians(ReferenceLatitude)
	lat2 := radians(lat)
	dLat := radians(lat - ReferenceLatitude)
	dLon := radians(lon - ReferenceLongitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	d := 2 * earthRadiusMiles * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(d*100) / 100
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// DeriveLocation fills the direction (when the client did not supply one) and
// the distance from the item's coordinates. Items without both coordinates are
// left untouched.
func DeriveLocation(item *models.Item) {
	if !item.HasCoordinates() {
		return
	}
	if item.DirectionFromReference == nil {
		d := DirectionFromReference(*item.Latitude, *item.Longitude)
		item.DirectionFromReference = &d
	}
	dist := DistanceFromReference(*item.Latitude, *item.Longitude)
	item.DistanceFromReference = &dist
}
