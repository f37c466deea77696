package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gokaycavdar/go-netguard/pkg/geoip"
	"github.com/gokaycavdar/go-netguard/pkg/models"
	"github.com/gokaycavdar/go-netguard/pkg/render"
)

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <ip>...",
	Short: "Geolocate one or more IP addresses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		records := make([]*models.GeoRecord, 0, len(args))
		for _, ip := range args {
			if _, invalid := geoip.ValidateIP(ip); invalid != nil {
				records = append(records, invalid)
				continue
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Geo.LookupTimeout)
			records = append(records, a.cache.Resolve(ctx, ip))
			cancel()
		}

		out := cmd.OutOrStdout()
		if lookupJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		return render.GeoRecords(out, records, term.IsTerminal(int(os.Stdout.Fd())))
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(lookupCmd)
}
