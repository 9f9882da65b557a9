package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/entropydec/gsrb/layout"
	"github.com/entropydec/gsrb/match"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var outputPNG string

	cmd := &cobra.Command{
		Use:   "diff <old-xml> <old-png> <new-xml> <new-png>",
		Short: "run the matcher between two captures and render an overlay showing matched/possible/unmatched widgets",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldXML, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			oldPNG, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			newXML, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[2], err)
			}
			newPNG, err := os.ReadFile(args[3])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[3], err)
			}

			old, err := layout.New(string(oldXML), oldPNG)
			if err != nil {
				return fmt.Errorf("parse old layout: %w", err)
			}
			newLayout, err := layout.New(string(newXML), newPNG)
			if err != nil {
				return fmt.Errorf("parse new layout: %w", err)
			}

			result := match.Layout(old, newLayout)
			fmt.Printf("score=%.3f is_match=%v matched=%d possible=%d old_not_matched=%d new_not_matched=%d\n",
				result.Score, result.IsMatch, len(result.Matched), len(result.Possible),
				len(result.OldNotMatched), len(result.NewNotMatched))

			if outputPNG == "" {
				return nil
			}
			img, diffs, err := match.DrawMatch(old, newLayout)
			if err != nil {
				return fmt.Errorf("draw match: %w", err)
			}
			for i, d := range diffs {
				fmt.Printf("diff[%d]: %v\n", i, d)
			}
			f, err := os.Create(outputPNG)
			if err != nil {
				return fmt.Errorf("create %s: %w", outputPNG, err)
			}
			defer f.Close()
			return png.Encode(f, img)
		},
	}

	cmd.Flags().StringVar(&outputPNG, "overlay", "", "path to write the match overlay PNG (empty to skip rendering)")
	return cmd
}
