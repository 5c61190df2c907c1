package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/witibot/witibot/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show witibot status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s witibot Status\n\n", logo)

	cfgMark := "✗"
	if _, err := os.Stat(cfgPath); err == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	snapMark := "✗"
	if _, err := os.Stat(cfg.Backlog.SnapshotPath); err == nil {
		snapMark = "✓"
	}
	fmt.Printf("Snapshot:  %s %s\n", cfg.Backlog.SnapshotPath, snapMark)
	fmt.Printf("Model:     %s\n\n", cfg.Provider.Model)

	fmt.Println("Channels:")
	printChannel("telegram", cfg.Channels.Telegram.Enabled, cfg.Channels.Telegram.Token != "")
	printChannel("bridge", cfg.Channels.Bridge.Enabled, cfg.Channels.Bridge.URL != "")

	fmt.Println("\nProvider:")
	if cfg.Provider.APIKey != "" {
		fmt.Printf("  %-12s ✓\n", "apiKey")
	} else {
		fmt.Printf("  %-12s (not set)\n", "apiKey")
	}
	if cfg.Provider.APIBase != "" {
		fmt.Printf("  %-12s %s\n", "apiBase", cfg.Provider.APIBase)
	}

	mensaMark := "disabled"
	if cfg.Mensa.Enabled {
		mensaMark = fmt.Sprintf("enabled (%s, %s)", cfg.Mensa.DeliverCron, cfg.Mensa.Timezone)
	}
	fmt.Printf("\nMensa:     %s\n", mensaMark)
	return nil
}

func printChannel(name string, enabled, configured bool) {
	switch {
	case enabled && configured:
		fmt.Printf("  %-12s ✓\n", name)
	case enabled:
		fmt.Printf("  %-12s enabled but not configured\n", name)
	default:
		fmt.Printf("  %-12s (disabled)\n", name)
	}
}
