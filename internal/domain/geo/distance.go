// Package geo calcula distancias entre productores y compradores.
package geo

import (
	"math"
	"slices"
)

// EarthRadiusKm es el radio medio terrestre usado por haversine.
const EarthRadiusKm = 6371.0

// Point es una coordenada en grados decimales.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Location es un Point con datos opcionales de ciudad/región (lo que da el proveedor de geolocalización).
type Location struct {
	Point
	City   string `json:"city,omitempty"`
	Region string `json:"region,omitempty"`
}

// DistanceKm devuelve la distancia de gran círculo entre a y b, redondeada a 1 decimal.
func DistanceKm(a, b Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// el redondeo puede dejar h apenas fuera de [0, 1] en puntos antípodas
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(EarthRadiusKm*c*10) / 10
}

// DistanceFrom es DistanceKm tolerante a nil: sin origen o sin destino => +Inf.
func DistanceFrom(origin, p *Point) float64 {
	if origin == nil || p == nil {
		return math.Inf(1)
	}
	return DistanceKm(*origin, *p)
}

// SortByDistance ordena (estable, ascendente) una copia de items por distancia a origin.
// Items sin ubicación van al final. Con origin nil devuelve el orden original.
func SortByDistance[T any](origin *Point, items []T, locate func(T) *Point) []T {
	out := slices.Clone(items)
	if origin == nil || len(out) < 2 {
		return out
	}

	dist := make(map[int]float64, len(out))
	idx := make([]int, len(out))
	for i, it := range out {
		idx[i] = i
		dist[i] = DistanceFrom(origin, locate(it))
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		da, db := dist[a], dist[b]
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})

	sorted := make([]T, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// WithinRadius filtra items a radiusKm o menos de origin, preservando el orden.
// radiusKm <= 0 u origin nil desactivan el filtro.
func WithinRadius[T any](origin *Point, items []T, locate func(T) *Point, radiusKm float64) []T {
	if origin == nil || radiusKm <= 0 {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if DistanceFrom(origin, locate(it)) <= radiusKm {
			out = append(out, it)
		}
	}
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
