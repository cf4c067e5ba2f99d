package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/calmate/internal/config"
)

// rootCmd represents the base command for the calmate application
var rootCmd = &cobra.Command{
	Use:   "calmate",
	Short: "A conversational assistant for your calendar",
	Long: `calmate answers plain-language requests about a calendar: list the events
on a day, create, move or delete events by title, show the next event or a
whole week.

It can run as:
  - An interactive chat on the terminal (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var (
	configPath string
	debugMode  bool
	overrides  configFlags
)

// configFlags are command-line overrides applied on top of the config file
// and the environment.
type configFlags struct {
	calendarID string
	timezone   string
	backend    string
}

func (f configFlags) apply(cfg *config.Config) {
	if f.calendarID != "" {
		cfg.CalendarID = f.calendarID
	}
	if f.timezone != "" {
		if cfg.EventTimezone == cfg.Timezone {
			cfg.EventTimezone = f.timezone
		}
		cfg.Timezone = f.timezone
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calmate version %s\n" .Version}}`)

	// If no subcommand is provided, start the chat
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath(), "Path to the configuration file")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	pf.StringVar(&overrides.calendarID, "calendar-id", "", "Calendar to operate on (overrides calendar_id)")
	pf.StringVar(&overrides.timezone, "timezone", "", "IANA time zone for resolving dates (overrides timezone)")
	pf.StringVar(&overrides.backend, "backend", "", "Calendar backend: google or memory (overrides backend)")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
