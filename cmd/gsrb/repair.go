package main

import (
	"context"
	"fmt"

	"github.com/entropydec/gsrb/device/uiautomator"
	"github.com/entropydec/gsrb/repair"
	"github.com/entropydec/gsrb/step"
	"github.com/entropydec/gsrb/xlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRepairCmd() *cobra.Command {
	var (
		pkg               string
		output            string
		verboseOutput     string
		optimizeExplore   bool
		removeAssertion   bool
		useGeneratedSteps bool
	)

	cmd := &cobra.Command{
		Use:   "repair <testcase-path>",
		Short: "replay a recorded test case against a live device, repairing broken locators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := xlog.WithContext(context.Background(), xlog.New())

			testcase, pretest, err := step.LoadTestCase(args[0], useGeneratedSteps)
			if err != nil {
				return fmt.Errorf("load test case: %w", err)
			}

			drv, err := uiautomator.Connect(ctx, viper.GetString("device"), viper.GetInt("rpc-port"))
			if err != nil {
				return fmt.Errorf("connect to device: %w", err)
			}

			session, err := repair.New(ctx, drv, testcase, pretest, repair.Config{
				Package:         pkg,
				DeviceSerial:    viper.GetString("device"),
				OptimizeExplore: optimizeExplore,
				RemoveAssertion: removeAssertion,
			})
			if err != nil {
				return fmt.Errorf("start repair session: %w", err)
			}

			succeeded, err := session.Run(ctx)
			if err != nil {
				return fmt.Errorf("run repair: %w", err)
			}

			if output != "" {
				if err := session.Save(output); err != nil {
					return fmt.Errorf("save script: %w", err)
				}
			}
			if verboseOutput != "" {
				if err := session.SaveVerbose(verboseOutput); err != nil {
					return fmt.Errorf("save verbose output: %w", err)
				}
			}

			if !succeeded {
				return fmt.Errorf("repair did not fully succeed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pkg, "package", "", "package name of the app under test")
	cmd.Flags().StringVar(&output, "output", "", "path to write the repaired script")
	cmd.Flags().StringVar(&verboseOutput, "verbose-output", "", "path to write the verbose-output zip archive")
	cmd.Flags().BoolVar(&optimizeExplore, "optimize-explore", false, "dedupe list-item exploration candidates and skip no-op explorations")
	cmd.Flags().BoolVar(&removeAssertion, "remove-assertion", false, "drop recorded assertions before replay")
	cmd.Flags().BoolVar(&useGeneratedSteps, "with-generated-assertions", false, "replay record_with_assertion.txt instead of record.txt")
	cmd.MarkFlagRequired("package")
	return cmd
}
