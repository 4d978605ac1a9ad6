// Package atmosphere derives true airspeed and Mach number from the ISA
// standard atmosphere. The model is calm-air and troposphere only: no
// tropopause clamp is applied, so results above roughly 36,000 ft are
// mathematically defined but not physical.
package atmosphere

import "math"

const (
	SeaLevelTempK  = 288.15
	LapseRateKPerM = 0.0065
	MetersPerFoot  = 0.3048
	HeatRatio      = 1.4
	GasConstantAir = 287.05   // J/(kg*K)
	MpsPerKnot     = 0.514444 // m/s per knot
)

// TemperatureAt returns the ISA temperature in kelvin at the given altitude.
func TemperatureAt(altitudeFeet float64) float64 {
	return SeaLevelTempK - LapseRateKPerM*(altitudeFeet*MetersPerFoot)
}

// InModel reports whether the ISA temperature at the altitude is above
// absolute zero. Outside that band TAS and Mach are NaN.
func InModel(altitudeFeet float64) bool {
	return TemperatureAt(altitudeFeet) > 0
}

// CalculateTAS converts indicated airspeed to true airspeed, both in knots.
func CalculateTAS(iasKnots, altitudeFeet float64) float64 {
	return iasKnots * math.Sqrt(SeaLevelTempK/TemperatureAt(altitudeFeet))
}

// SpeedOfSound returns the local speed of sound in m/s.
func SpeedOfSound(altitudeFeet float64) float64 {
	return math.Sqrt(HeatRatio * GasConstantAir * TemperatureAt(altitudeFeet))
}

// CalculateMach returns the Mach number for a true airspeed in knots.
func CalculateMach(tasKnots, altitudeFeet float64) float64 {
	return tasKnots * MpsPerKnot / SpeedOfSound(altitudeFeet)
}
