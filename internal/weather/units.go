package weather

// Unit systems and wind speed display units accepted in settings.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"

	WindKMH = "kmh"
	WindMPH = "mph"
)

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 {
	return c*9/5 + 32
}

// MSToKMH converts metres per second to kilometres per hour.
func MSToKMH(ms float64) float64 {
	return ms * 3.6
}

// MSToMPH converts metres per second to miles per hour.
func MSToMPH(ms float64) float64 {
	return ms * 2.23694
}

// HPaToInHg converts hectopascal to inches of mercury.
func HPaToInHg(hpa float64) float64 {
	return hpa * 0.02953
}

// DisplayTemp converts a canonical Celsius value into the configured unit
// system.
func DisplayTemp(c float64, unitSystem string) float64 {
	if unitSystem == UnitsImperial {
		return CToF(c)
	}
	return c
}

// DisplayWind converts a canonical m/s value into the configured wind unit.
func DisplayWind(ms float64, windUnit string) float64 {
	if windUnit == WindMPH {
		return MSToMPH(ms)
	}
	return MSToKMH(ms)
}

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassPoint maps a wind bearing in degrees to an 8-point compass label.
func CompassPoint(deg float64) string {
	idx := int((deg+22.5)/45) % 8
	if idx < 0 {
		idx += 8
	}
	return compassPoints[idx]
}
