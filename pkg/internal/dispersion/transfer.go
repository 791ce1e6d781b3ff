package dispersion

import "math"

// MinKH keeps the transfer function away from its removable singularity at kh = 0.
const MinKH = 1e-6

// PaddleTransfer returns the linear wave-height-to-stroke ratio H/S of a
// flap wavemaker for relative depth kh.
func PaddleTransfer(kh float64) float64 {
	if kh < MinKH || math.IsNaN(kh) {
		kh = MinKH
	}
	num := 4 * (math.Sinh(kh) / kh) * (kh*math.Sinh(kh) - math.Cosh(kh) + 1)
	den := math.Sinh(2*kh) + 2*kh
	hs := num / den
	if math.IsNaN(hs) || math.IsInf(hs, 0) {
		// sinh overflows past kh ≈ 355; the deep-water limit is 2(kh-1)/kh.
		return 2 * (kh - 1) / kh
	}
	return hs
}
