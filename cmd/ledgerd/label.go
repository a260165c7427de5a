package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"equipment-ledger-backend/internal/label"
)

func NewLabelCommand() *cobra.Command {
	var (
		output string
		size   int
	)

	cmd := &cobra.Command{
		Use:   "label <code>",
		Short: "Render a QR asset tag for a device code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				text, err := label.Text(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}

			png, err := label.PNG(args[0], size)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("failed to write label: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write a PNG to this file instead of printing to the terminal")
	cmd.Flags().IntVar(&size, "size", label.DefaultSize, "PNG edge length in pixels")
	return cmd
}
