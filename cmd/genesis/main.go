// Command genesis queries the Genesis statistics web services from the
// command line: search, lookup, catalogue listings and table downloads.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marians/genesisclient/internal/config"
	"github.com/marians/genesisclient/internal/logging"
	"github.com/marians/genesisclient/pkg/genesis"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	headColor = color.New(color.FgCyan, color.Bold)
	typeColor = color.New(color.FgYellow)
	okColor   = color.New(color.FgGreen)
)

// app carries the state shared by all subcommands.
type app struct {
	// Global flags
	configPath string
	site       string
	username   string
	password   string
	verbose    bool

	// factory replaces the SOAP transport when set.
	factory genesis.InvokerFactory

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(factory genesis.InvokerFactory) *cobra.Command {
	a := &app{factory: factory}

	rootCmd := &cobra.Command{
		Use:   "genesis",
		Short: "Query the Genesis statistics web services",
		Long: `genesis searches and downloads data from the Genesis family of statistics
web services (DESTATIS, Landesdatenbank NRW, Regionalstatistik, Bayern,
Bildungsmonitoring).

Settings are read from an optional YAML file (--config), then GENESIS_*
environment variables, then flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVarP(&a.site, "site", "s", "", "Genesis site to connect to (DESTATIS, LDNRW, REGIONAL, BAYERN, BILDUNG)")
	flags.StringVarP(&a.username, "user", "u", "", "username for Genesis login")
	flags.StringVarP(&a.password, "password", "p", "", "password for Genesis login")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newSearchCmd(a),
		newLookupCmd(a),
		newDownloadCmd(a),
		newTermsCmd(a),
		newCatalogueCmd(a),
		newPingCmd(a),
	)
	return rootCmd
}

// setup loads configuration, applies flags and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.site != "" {
		cfg.Site = a.site
	}
	if a.username != "" {
		cfg.Username = a.username
	}
	if a.password != "" {
		cfg.Password = a.password
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) client() (*genesis.Client, error) {
	var extra []genesis.Option
	if a.factory != nil {
		extra = append(extra, genesis.WithInvokerFactory(a.factory))
	}
	return genesis.FromConfig(a.cfg, a.logger, extra...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(nil).ExecuteContext(ctx); err != nil {
		errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func fprintf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
