package viewer

import "math"

// PixelRatio caps a display's device scale factor. Unknown scales count
// as 1.
func PixelRatio(device, limit float64) float64 {
	if device <= 0 || math.IsNaN(device) {
		device = 1
	}
	if limit > 0 {
		device = math.Min(device, limit)
	}
	return device
}

// ScaledSize converts a window size in points to framebuffer pixels.
func ScaledSize(width, height int, ratio float64) (int, int) {
	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))
	return max(w, 1), max(h, 1)
}
