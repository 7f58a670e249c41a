package pose

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/skeleton"
)

// ReplayPattern names the landmark file stored next to each replayed
// colour frame.
const ReplayPattern = "pose_%06d.json"

// ReplayEstimator returns landmarks recorded alongside a replay directory.
// Each file is a JSON array of landmarks for the colour frame with the same
// sequence number. A missing file means nobody was detected.
type ReplayEstimator struct {
	dir string
}

// NewReplayEstimator reads landmark files from dir.
func NewReplayEstimator(dir string) *ReplayEstimator {
	return &ReplayEstimator{dir: dir}
}

// Estimate loads the landmarks for img.Sequence.
func (e *ReplayEstimator) Estimate(ctx context.Context, img *camera.ColorImage) ([]skeleton.Landmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(e.dir, fmt.Sprintf(ReplayPattern, img.Sequence))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read landmarks: %w", err)
	}

	var lm []skeleton.Landmark
	if err := json.Unmarshal(data, &lm); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return lm, nil
}

// WriteReplay stores landmarks for frame seq in dir, in the format
// ReplayEstimator reads.
func WriteReplay(dir string, seq uint64, lm []skeleton.Landmark) error {
	data, err := json.MarshalIndent(lm, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal landmarks: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf(ReplayPattern, seq))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write landmarks: %w", err)
	}
	return nil
}
