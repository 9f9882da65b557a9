package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entropydec/gsrb/device/uiautomator"
	"github.com/entropydec/gsrb/repair"
	"github.com/entropydec/gsrb/step"
	"github.com/entropydec/gsrb/xlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBatchCmd() *cobra.Command {
	var (
		pkg             string
		outputDir       string
		optimizeExplore bool
		removeAssertion bool
	)

	cmd := &cobra.Command{
		Use:   "batch <testcase-dir>",
		Short: "run repair over every recorded test case archive in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			ctx := xlog.WithContext(context.Background(), xlog.New())
			drv, err := uiautomator.Connect(ctx, viper.GetString("device"), viper.GetInt("rpc-port"))
			if err != nil {
				return fmt.Errorf("connect to device: %w", err)
			}

			var failures []string
			for _, entry := range entries {
				archivePath := filepath.Join(args[0], entry.Name())
				xlog.Info(ctx, "batch: repairing "+archivePath)

				testcase, pretest, err := step.LoadTestCase(archivePath, false)
				if err != nil {
					xlog.Error(ctx, err, "load test case: "+archivePath)
					failures = append(failures, entry.Name())
					continue
				}

				session, err := repair.New(ctx, drv, testcase, pretest, repair.Config{
					Package:         pkg,
					DeviceSerial:    viper.GetString("device"),
					OptimizeExplore: optimizeExplore,
					RemoveAssertion: removeAssertion,
				})
				if err != nil {
					xlog.Error(ctx, err, "start repair session: "+archivePath)
					failures = append(failures, entry.Name())
					continue
				}

				succeeded, err := session.Run(ctx)
				if err != nil || !succeeded {
					failures = append(failures, entry.Name())
				}

				if outputDir != "" {
					name := entry.Name() + ".py"
					if err := session.Save(filepath.Join(outputDir, name)); err != nil {
						xlog.Error(ctx, err, "save script: "+archivePath)
					}
				}
			}

			fmt.Printf("batch complete: %d/%d failed\n", len(failures), len(entries))
			for _, f := range failures {
				fmt.Println("  failed:", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pkg, "package", "", "package name of the app under test")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory to write each repaired script into")
	cmd.Flags().BoolVar(&optimizeExplore, "optimize-explore", false, "dedupe list-item exploration candidates and skip no-op explorations")
	cmd.Flags().BoolVar(&removeAssertion, "remove-assertion", false, "drop recorded assertions before replay")
	cmd.MarkFlagRequired("package")
	return cmd
}
