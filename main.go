package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dipolesim/dipoleserv/dataset"
	"github.com/dipolesim/dipoleserv/slider"
	"github.com/dipolesim/dipoleserv/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	verbose    bool
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "dipoleserv",
	Short: "Serves precomputed dipole simulation data to the browser viewer",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// config merges the config file with any flags given on the command line.
func config(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("data") {
		cfg.Source = source.Config{Kind: "dir", Dir: dataDir}
	}
	if cfg.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := source.New(ctx, cfg.Source)
			if err != nil {
				return err
			}
			return NewServer(cfg, src).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", defaultConfig().Listen, "Address to listen on")
	return cmd
}

func newRangesCmd() *cobra.Command {
	var vi, ai int
	var axis string
	cmd := &cobra.Command{
		Use:   "ranges",
		Short: "Print the slider ranges for a dipole position/angle selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			src, err := source.New(ctx, cfg.Source)
			if err != nil {
				return err
			}
			b, err := dataset.Load(ctx, src, dataset.Options{SelectionOnly: true})
			if err != nil {
				return err
			}
			sess, err := newSession(b, vi, ai)
			if err != nil {
				return err
			}

			var out interface{}
			if axis != "" {
				a, err := slider.ParseAxis(axis)
				if err != nil {
					return err
				}
				if out, err = sess.Slider(a); err != nil {
					return err
				}
			} else if out, err = describe(sess); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().IntVar(&vi, "vi", 0, "Dipole position index")
	cmd.Flags().IntVar(&ai, "ai", 0, "Dipole angle index")
	cmd.Flags().StringVar(&axis, "axis", "", "Only print this axis (x, y, z, theta, phi)")
	return cmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose mode")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "doc/_data", "Local data directory (overrides the configured source)")
	rootCmd.AddCommand(newServeCmd(), newRangesCmd(), versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
