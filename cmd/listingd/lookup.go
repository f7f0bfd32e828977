package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/config"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/listing"
)

func lookupCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "aggregate one listing and print it as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "listing URL", Required: true},
			&cli.StringFlag{Name: "check-in", Usage: "check-in date (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "check-out", Usage: "check-out date (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "currency", Usage: "ISO currency code", Value: cfg.DefaultCurrency},
		},
		Action: func(c *cli.Context) error {
			req, err := listing.NewRequest(c.String("url"), c.String("check-in"), c.String("check-out"), c.String("currency"), cfg.DefaultCurrency)
			if err != nil {
				return err
			}

			svc, err := newListingService(cfg, nil, nil)
			if err != nil {
				return err
			}
			result, err := svc.Lookup(c.Context, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
