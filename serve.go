package main

import (
	"github.com/spf13/cobra"

	"github.com/gokaycavdar/go-netguard/pkg/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve investigations and geolocation lookups over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if serveListen != "" {
			a.cfg.Server.Listen = serveListen
		}
		inv, err := a.investigator(a.enumerator())
		if err != nil {
			return err
		}

		srv := server.New(inv, a.cache, server.Options{
			Logger:        a.logger,
			Metrics:       a.metrics.Handler(),
			RateLimit:     a.cfg.Server.RateLimit,
			RateBurst:     a.cfg.Server.RateBurst,
			LookupTimeout: a.cfg.Geo.LookupTimeout,
		})
		return srv.ListenAndServe(cmd.Context(), a.cfg.Server.Listen)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
