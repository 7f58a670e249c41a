// Command gen-replay writes a synthetic replay directory (colour frames,
// 16-bit depth frames, pose landmarks and intrinsics) for the tracker's
// -replay mode.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/pose"
)

func main() {
	output := flag.String("o", "replay", "output directory")
	frames := flag.Int("n", 90, "number of frames")
	gapEvery := flag.Int("gap", 0, "omit the pose file every N frames (0 keeps all)")
	flag.Parse()

	if err := generate(*output, *frames, *gapEvery); err != nil {
		log.Fatal(err)
	}
	log.Printf("✓ Created: %s (%d frames)", *output, *frames)
}

func generate(dir string, frames, gapEvery int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	in, err := json.MarshalIndent(camera.DefaultIntrinsics, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, camera.ReplayIntrinsicsFile), in, 0o644); err != nil {
		return err
	}

	const width, height = 1280, 720
	background := imaging.New(width, height, color.NRGBA{R: 24, G: 24, B: 32, A: 255})
	depth := camera.NewDepthImage(640, 480, 2000)
	est := pose.NewSyntheticEstimator()

	for i := 0; i < frames; i++ {
		seq := uint64(i)
		if err := imaging.Save(background, filepath.Join(dir, fmt.Sprintf(camera.ReplayColorPattern, seq))); err != nil {
			return fmt.Errorf("frame %d colour: %w", i, err)
		}
		if err := writeDepth(filepath.Join(dir, fmt.Sprintf(camera.ReplayDepthPattern, seq)), depth); err != nil {
			return fmt.Errorf("frame %d depth: %w", i, err)
		}

		if gapEvery > 0 && (i+1)%gapEvery == 0 {
			continue
		}
		lm, err := est.Estimate(context.Background(), &camera.ColorImage{Width: width, Height: height, Sequence: seq})
		if err != nil {
			return err
		}
		if err := pose.WriteReplay(dir, seq, lm); err != nil {
			return fmt.Errorf("frame %d pose: %w", i, err)
		}
		if (i+1)%30 == 0 {
			log.Printf("%d/%d frames", i+1, frames)
		}
	}
	return nil
}

func writeDepth(path string, d *camera.DepthImage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := camera.WriteDepthPNG(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
