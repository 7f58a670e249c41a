package camera

// DefaultDepthMeters is substituted whenever a depth reading is unavailable.
const DefaultDepthMeters = 1.5

// DepthImage is a row-major grid of 16-bit millimetre readings. A zero
// reading means the sensor had no return for that pixel.
type DepthImage struct {
	Width  int
	Height int
	Data   []uint16
}

// NewDepthImage allocates a width x height depth image filled with mm.
func NewDepthImage(width, height int, mm uint16) *DepthImage {
	data := make([]uint16, width*height)
	if mm != 0 {
		for i := range data {
			data[i] = mm
		}
	}
	return &DepthImage{Width: width, Height: height, Data: data}
}

// At returns the raw reading at (x, y) and false when the coordinate is
// outside the grid.
func (d *DepthImage) At(x, y int) (uint16, bool) {
	if d == nil || x < 0 || y < 0 || x >= d.Width || y >= d.Height {
		return 0, false
	}
	i := y*d.Width + x
	if i >= len(d.Data) {
		return 0, false
	}
	return d.Data[i], true
}

// Set writes a raw reading; out of range coordinates are ignored.
func (d *DepthImage) Set(x, y int, mm uint16) {
	if x < 0 || y < 0 || x >= d.Width || y >= d.Height {
		return
	}
	d.Data[y*d.Width+x] = mm
}

// DepthSampler looks up metric depth for colour-image pixels.
type DepthSampler struct {
	// DefaultDepth is returned when the lookup cannot produce a reading.
	DefaultDepth float64
}

// NewDepthSampler returns a sampler that falls back to defaultDepth.
// A non-positive value selects DefaultDepthMeters.
func NewDepthSampler(defaultDepth float64) DepthSampler {
	if defaultDepth <= 0 {
		defaultDepth = DefaultDepthMeters
	}
	return DepthSampler{DefaultDepth: defaultDepth}
}

// Sample returns the depth in metres for colour pixel (px, py) of a
// colorW x colorH image. The pixel is scaled independently on each axis
// to the depth grid and truncated. A missing depth image, an out of range
// coordinate or a zero reading all yield the default depth.
func (s DepthSampler) Sample(px, py, colorW, colorH int, depth *DepthImage) float64 {
	if depth == nil || colorW <= 0 || colorH <= 0 {
		return s.DefaultDepth
	}
	dx := int(float64(px) * (float64(depth.Width) / float64(colorW)))
	dy := int(float64(py) * (float64(depth.Height) / float64(colorH)))

	raw, ok := depth.At(dx, dy)
	if !ok || raw == 0 {
		return s.DefaultDepth
	}
	return float64(raw) / 1000.0
}
