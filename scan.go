package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gokaycavdar/go-netguard/pkg/models"
	"github.com/gokaycavdar/go-netguard/pkg/netstat"
	"github.com/gokaycavdar/go-netguard/pkg/render"
)

var (
	scanJSON         bool
	scanNoColor      bool
	scanSnapshot     string
	scanSaveSnapshot string
	scanMaxLookups   int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one investigation pass and print the report",
	Long: "Enumerate active connections (or read them from --snapshot), geolocate remote addresses,\n" +
		"classify every connection and print the resulting security report.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("max-lookups") {
			a.cfg.Scan.MaxLookups = scanMaxLookups
		}

		var enum netstat.Enumerator = a.enumerator()
		if scanSnapshot != "" {
			snap, err := netstat.LoadSnapshot(scanSnapshot)
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}
			enum = snap
		}

		if scanSaveSnapshot != "" {
			conns, err := enum.Connections(cmd.Context())
			if err != nil {
				return err
			}
			if err := saveSnapshot(scanSaveSnapshot, conns); err != nil {
				return err
			}
			enum = netstat.Static(conns)
		}

		inv, err := a.investigator(enum)
		if err != nil {
			return err
		}
		report := inv.Run(cmd.Context())

		out := cmd.OutOrStdout()
		if scanJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		color := !scanNoColor && term.IsTerminal(int(os.Stdout.Fd()))
		return render.Report(out, report, color)
	},
}

func saveSnapshot(path string, conns []models.Connection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := netstat.WriteSnapshot(f, conns); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the report as JSON")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "disable colour output")
	scanCmd.Flags().StringVar(&scanSnapshot, "snapshot", "", "classify connections from a saved JSON snapshot instead of the live host")
	scanCmd.Flags().StringVar(&scanSaveSnapshot, "save-snapshot", "", "write the enumerated connections to a JSON file")
	scanCmd.Flags().IntVar(&scanMaxLookups, "max-lookups", 0, "distinct addresses to geolocate in this pass (overrides config)")
	rootCmd.AddCommand(scanCmd)
}
