package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gxtest/uitest/pkg/config"
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/imagediff"
)

var compareCommand = &cli.Command{
	Name:      "compare",
	Usage:     "Compare a captured screenshot with a reference image",
	ArgsUsage: "<captured.png> <reference.png>",
	Description: `Compare two PNG images with the same pixel and perceptual precision
used by VerifyScreenshot. Exits non-zero when they do not match.

Examples:
  gxuitest compare captured.png reference.png
  gxuitest compare captured.png reference.png --diff diff.png --pixel-precision 0.99`,
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:  "pixel-precision",
			Usage: "Fraction of pixels that must match",
			Value: config.DefaultPixelPrecision,
		},
		&cli.Float64Flag{
			Name:  "perceptual-precision",
			Usage: "How close a pixel's color must be to count as matching",
			Value: config.DefaultPerceptualPrecision,
		},
		&cli.StringFlag{
			Name:  "diff",
			Usage: "Write a PNG highlighting the differing pixels",
		},
	},
	Action: runCompare,
}

func runCompare(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("compare needs a captured and a reference image")
	}
	w := c.App.Writer

	captured, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("read captured image: %w", err)
	}
	reference, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("read reference image: %w", err)
	}

	opts := imagediff.Options{
		PixelPrecision:      c.Float64("pixel-precision"),
		PerceptualPrecision: c.Float64("perceptual-precision"),
	}
	res, err := imagediff.CompareBytes(captured, reference, opts)
	if err != nil {
		if errors.Is(err, core.ErrComparisonIndeterminate) {
			fmt.Fprintf(w, "%sindeterminate%s: %v\n", color(colorYellow), color(colorReset), err)
		}
		return err
	}

	if res.Match {
		fmt.Fprintf(w, "%smatch%s ", color(colorGreen), color(colorReset))
	} else {
		fmt.Fprintf(w, "%smismatch%s ", color(colorRed), color(colorReset))
	}
	fmt.Fprintf(w, "%d/%d pixels differ (pixel precision %.4f, perceptual precision %.4f, max ΔE %.2f)\n",
		res.DifferentPixels, res.TotalPixels,
		res.ActualPixelPrecision, res.ActualPerceptualPrecision, res.MaxDeltaE)

	if path := c.String("diff"); path != "" {
		if err := writeDiff(path, captured, reference, opts); err != nil {
			return err
		}
		fmt.Fprintf(w, "diff: %s\n", path)
	}

	if !res.Match {
		return fmt.Errorf("images do not match")
	}
	return nil
}

func writeDiff(path string, captured, reference []byte, opts imagediff.Options) error {
	a, err := imagediff.Decode(captured)
	if err != nil {
		return err
	}
	b, err := imagediff.Decode(reference)
	if err != nil {
		return err
	}
	mask, err := imagediff.DiffMask(a, b, opts)
	if err != nil {
		return err
	}
	data, err := imagediff.Encode(mask)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write diff: %w", err)
	}
	return nil
}
