package main

import (
	"fmt"

	"github.com/entropydec/gsrb/step"
	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	var withGenerated bool

	cmd := &cobra.Command{
		Use:   "count <testcase-path>",
		Short: "report step and assertion counts for a recorded test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testcase, pretest, err := step.LoadTestCase(args[0], withGenerated)
			if err != nil {
				return fmt.Errorf("load test case: %w", err)
			}

			assertions, generated := 0, 0
			for _, s := range testcase {
				if s.Event.IsAssertion() {
					assertions++
				}
				if s.Event.IsGeneratedAssertion() {
					generated++
				}
			}

			fmt.Printf("steps=%d assertions=%d generated_assertions=%d has_pretest=%v\n",
				len(testcase), assertions, generated, pretest != "")
			return nil
		},
	}

	cmd.Flags().BoolVar(&withGenerated, "with-generated-assertions", false, "count record_with_assertion.txt instead of record.txt")
	return cmd
}
