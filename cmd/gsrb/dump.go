package main

import (
	"context"
	"fmt"
	"os"

	"github.com/entropydec/gsrb/device/uiautomator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDumpCmd() *cobra.Command {
	var xmlPath, pngPath string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "dump the live hierarchy XML and screenshot PNG from the connected device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			drv, err := uiautomator.Connect(ctx, viper.GetString("device"), viper.GetInt("rpc-port"))
			if err != nil {
				return fmt.Errorf("connect to device: %w", err)
			}

			xmlDump, err := drv.DumpHierarchy(ctx)
			if err != nil {
				return fmt.Errorf("dump hierarchy: %w", err)
			}
			if err := os.WriteFile(xmlPath, []byte(xmlDump), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", xmlPath, err)
			}

			if pngPath != "" {
				png, err := drv.Screenshot(ctx)
				if err != nil {
					return fmt.Errorf("screenshot: %w", err)
				}
				if err := os.WriteFile(pngPath, png, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", pngPath, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&xmlPath, "xml", "dump.xml", "path to write the hierarchy dump")
	cmd.Flags().StringVar(&pngPath, "png", "dump.png", "path to write the screenshot (empty to skip)")
	return cmd
}
