package prayer

import (
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/topo"
	"github.com/soniakeys/unit"
)

// Kaaba coordinates.
const (
	KaabaLatitude  = 21.4225
	KaabaLongitude = 39.8262
)

// Qibla returns the initial great-circle bearing from loc to the Kaaba in
// degrees east of north, [0, 360).
func Qibla(loc astro.Location) (float64, error) {
	if err := loc.Validate(); err != nil {
		return 0, err
	}
	sφ, cφ := unit.AngleFromDeg(loc.Latitude).Sincos()
	sk, ck := unit.AngleFromDeg(KaabaLatitude).Sincos()
	sΔ, cΔ := unit.AngleFromDeg(KaabaLongitude - loc.Longitude).Sincos()

	y := sΔ * ck
	x := cφ*sk - sφ*ck*cΔ
	return astro.NormalizeDegrees(unit.Angle(math.Atan2(y, x)).Deg()), nil
}

// QiblaDistance is the great-circle distance to the Kaaba in kilometers on
// a sphere of Earth's equatorial radius.
func QiblaDistance(loc astro.Location) float64 {
	sep := astro.AngularSeparation(loc.Longitude, loc.Latitude, KaabaLongitude, KaabaLatitude)
	return unit.AngleFromDeg(sep).Rad() * topo.EarthRadiusKm
}
