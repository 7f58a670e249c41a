// Package pose adapts 2D pose estimators to the tracker. The estimator
// model itself is external; this package only defines the boundary and a
// couple of implementations for dev mode and offline replay.
package pose

import (
	"context"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/skeleton"
)

// Estimator finds body landmarks in a colour frame. It returns an empty
// slice (and nil error) when nobody is in view.
type Estimator interface {
	Estimate(ctx context.Context, img *camera.ColorImage) ([]skeleton.Landmark, error)
}

// EstimatorFunc adapts a plain function to Estimator.
type EstimatorFunc func(ctx context.Context, img *camera.ColorImage) ([]skeleton.Landmark, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(ctx context.Context, img *camera.ColorImage) ([]skeleton.Landmark, error) {
	return f(ctx, img)
}
