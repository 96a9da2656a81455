package render

import "math"

// LatLng is a map position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a latitude/longitude box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns the smallest box containing every point. ok is false
// for an empty input.
func BoundsOf(points []LatLng) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{South: points[0].Lat, North: points[0].Lat, West: points[0].Lng, East: points[0].Lng}
	for _, p := range points[1:] {
		b.South = math.Min(b.South, p.Lat)
		b.North = math.Max(b.North, p.Lat)
		b.West = math.Min(b.West, p.Lng)
		b.East = math.Max(b.East, p.Lng)
	}
	return b, true
}

// Pad grows the box on every side by ratio of its height and width.
func (b Bounds) Pad(ratio float64) Bounds {
	dLat := math.Abs(b.North-b.South) * ratio
	dLng := math.Abs(b.East-b.West) * ratio
	return Bounds{
		South: b.South - dLat,
		West:  b.West - dLng,
		North: b.North + dLat,
		East:  b.East + dLng,
	}
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lng >= b.West && p.Lng <= b.East
}

// Center returns the middle of the box.
func (b Bounds) Center() LatLng {
	return LatLng{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
}
