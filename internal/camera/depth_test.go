package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepthSampler_Sample(t *testing.T) {
	depth := NewDepthImage(640, 480, 0)
	depth.Set(320, 240, 2000)
	depth.Set(0, 0, 750)
	depth.Set(639, 479, 4321)

	sampler := NewDepthSampler(1.5)

	tests := []struct {
		name   string
		px, py int
		want   float64
	}{
		{"centre scales by half", 640, 360, 2.0},
		{"origin", 0, 0, 0.75},
		{"last pixel", 1279, 719, 4.321},
		{"zero reading falls back", 100, 100, 1.5},
		{"right of image", 1280, 360, 1.5},
		{"below image", 640, 721, 1.5},
		{"negative x", -5, 360, 1.5},
		{"far out of range", 1 << 20, 1 << 20, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sampler.Sample(tt.px, tt.py, 1280, 720, depth)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDepthSampler_IndependentAxisScale(t *testing.T) {
	// 4:3 depth against 16:9 colour: x scales by 0.5, y by 2/3.
	depth := NewDepthImage(640, 480, 0)
	depth.Set(100, 200, 1234)

	got := NewDepthSampler(1.5).Sample(200, 301, 1280, 720, depth)
	assert.InDelta(t, 1.234, got, 1e-12)
}

func TestDepthSampler_NoDepthImage(t *testing.T) {
	assert.Equal(t, 1.5, NewDepthSampler(1.5).Sample(10, 10, 1280, 720, nil))
}

func TestDepthSampler_ShortDataSlice(t *testing.T) {
	// Header claims more pixels than the buffer holds; must not index past it.
	depth := &DepthImage{Width: 100, Height: 100, Data: make([]uint16, 10)}
	assert.Equal(t, 2.5, NewDepthSampler(2.5).Sample(99, 99, 100, 100, depth))
}

func TestNewDepthSampler_DefaultsNonPositive(t *testing.T) {
	assert.Equal(t, DefaultDepthMeters, NewDepthSampler(0).DefaultDepth)
	assert.Equal(t, DefaultDepthMeters, NewDepthSampler(-3).DefaultDepth)
}
