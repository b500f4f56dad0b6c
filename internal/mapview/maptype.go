package mapview

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type MapType string

const (
	MapRisk     MapType = "riesgo"
	MapResponse MapType = "respuesta"
	MapPaths    MapType = "caminos"
)

const DefaultDistanceBudget = 10.0

var (
	ErrUnknownMapType = errors.New("unknown map type")
	ErrInvalidBudget  = errors.New("distance budget must be a number greater than zero")
)

func ParseMapType(raw string) (MapType, error) {
	t := MapType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMapType, raw)
	}
	return t, nil
}

func (t MapType) Valid() bool {
	switch t {
	case MapRisk, MapResponse, MapPaths:
		return true
	default:
		return false
	}
}

// DisplayName is the label shown on tabs and in notifications.
func (t MapType) DisplayName() string {
	switch t {
	case MapRisk:
		return "Risk map"
	case MapResponse:
		return "Response map"
	case MapPaths:
		return "Paths map"
	default:
		return string(t)
	}
}

// ViewPath is the remote resource rendering this map.
func (t MapType) ViewPath() string {
	return "/mapa/" + string(t)
}

// ParseDistanceBudget accepts a finite decimal number greater than zero.
func ParseDistanceBudget(raw string) (float64, error) {
	km, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(km) || math.IsInf(km, 0) || km <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBudget, raw)
	}
	return km, nil
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}
