package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/config"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/export"
)

func exportCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "aggregate a CSV batch of listings into a spreadsheet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Usage: "CSV file of url,check_in,check_out[,currency]", Required: true},
			&cli.StringFlag{Name: "xlsx", Usage: "write an XLSX workbook to this path"},
			&cli.StringFlag{Name: "sheet-id", Usage: "write to this Google spreadsheet"},
		},
		Action: func(c *cli.Context) error {
			writer, err := newSheetWriter(c, cfg)
			if err != nil {
				return err
			}

			f, err := os.Open(c.String("input"))
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()

			reqs, err := export.ReadRequests(f, cfg.DefaultCurrency)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			svc, err := newListingService(cfg, nil, nil)
			if err != nil {
				return err
			}

			summary, err := export.NewService(svc, writer).Export(c.Context, reqs)
			if err != nil {
				return err
			}
			slog.Info("export completed", "written", summary.Written, "failed", summary.Failed)
			return nil
		},
	}
}

func newSheetWriter(c *cli.Context, cfg config.Config) (export.SheetWriter, error) {
	xlsxPath, sheetID := c.String("xlsx"), c.String("sheet-id")
	switch {
	case xlsxPath != "" && sheetID != "":
		return nil, errors.New("--xlsx and --sheet-id are mutually exclusive")
	case xlsxPath != "":
		return export.NewXLSXWriter(xlsxPath), nil
	case sheetID != "":
		if cfg.GoogleCredentialsJSON == "" {
			return nil, errors.New("GOOGLE_CREDENTIALS_JSON is required for --sheet-id")
		}
		return export.NewSheetsWriter(c.Context, sheetID, cfg.GoogleCredentialsJSON)
	default:
		return nil, errors.New("one of --xlsx or --sheet-id is required")
	}
}
