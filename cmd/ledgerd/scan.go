package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"equipment-ledger-backend/internal/db"
	"equipment-ledger-backend/internal/resolver"
	"equipment-ledger-backend/internal/scan"
	"equipment-ledger-backend/internal/store"
)

func NewScanCommand(env envFunc) *cobra.Command {
	var watchDir string

	cmd := &cobra.Command{
		Use:   "scan [image...]",
		Short: "Decode a code from images or a snapshot directory and resolve it to a device",
		Long: "Decode the first readable QR, Data Matrix or 1D barcode from the given images, " +
			"or from the newest snapshots written to --watch, then look the text up in the ledger.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (watchDir == "") == (len(args) == 0) {
				return errors.New("give either image files or --watch, not both")
			}
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var source scan.Source = scan.FileSource{Paths: args}
			if watchDir != "" {
				source = scan.DirSource{Dir: watchDir}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session := scan.NewSession(source, scan.NewDecoder(), cfg.Scan.Interval, logger)
			text, err := session.Run(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return errors.New("scan cancelled")
				}
				return err
			}

			gormDB, err := db.Init(&cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			res, err := resolver.New(store.NewGormStore(gormDB), logger).Resolve(ctx, text)
			if err != nil {
				return err
			}
			logger.Info("scan resolved",
				zap.String("text", text),
				zap.String("outcome", string(res.Outcome)),
				zap.String("stage", string(res.Stage)),
			)
			return printResolution(cmd, res)
		},
	}
	cmd.Flags().StringVar(&watchDir, "watch", "", "directory a camera writes snapshots into")
	return cmd
}

type scanOutput struct {
	Text     string `json:"text"`
	Outcome  string `json:"outcome"`
	Stage    string `json:"stage,omitempty"`
	DeviceID int64  `json:"deviceId,omitempty"`
	Name     string `json:"name,omitempty"`
	Matches  int    `json:"matches,omitempty"`
	Redirect string `json:"redirect"`
}

func printResolution(cmd *cobra.Command, res resolver.Result) error {
	out := scanOutput{
		Text:     res.Query,
		Outcome:  string(res.Outcome),
		Stage:    string(res.Stage),
		Matches:  len(res.Matches),
		Redirect: res.Redirect(),
	}
	if res.Device != nil {
		out.DeviceID = res.Device.ID
		out.Name = res.Device.Name
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
