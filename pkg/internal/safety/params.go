package safety

// Params holds the physical limits of the wavemaker and tank.
type Params struct {
	FlapHeight          float64 // hinge-to-top height of the paddle, m
	Depth               float64 // still water depth, m
	MaxHalfStroke       float64 // mechanical half-stroke limit, m
	MaxSteepness        float64 // max H/L
	MaxHeightDepthRatio float64 // max H/d
	Precision           int     // dispersion grid precision (decimal places)
}

// DefaultParams returns the limits of the tow/wave tank wavemaker.
func DefaultParams() Params {
	return Params{
		FlapHeight:          3.3147,
		Depth:               2.44,
		MaxHalfStroke:       0.16,
		MaxSteepness:        0.1,
		MaxHeightDepthRatio: 0.65,
		Precision:           2,
	}
}
