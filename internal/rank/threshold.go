package rank

// The admission bar scales with run volume: a thin harvest keeps
// borderline records, a flood keeps only the strong ones.
const (
	ThresholdFloor   = 0.25
	ThresholdCeiling = 0.55

	volumeLow  = 25
	volumeHigh = 250
)

// Threshold interpolates linearly between the floor (at or below
// volumeLow records) and the ceiling (at or above volumeHigh).
func Threshold(volume int) float64 {
	switch {
	case volume <= volumeLow:
		return ThresholdFloor
	case volume >= volumeHigh:
		return ThresholdCeiling
	}
	frac := float64(volume-volumeLow) / float64(volumeHigh-volumeLow)
	return ThresholdFloor + frac*(ThresholdCeiling-ThresholdFloor)
}
