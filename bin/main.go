// Command ladders is a terminal client for a snakes and ladders game server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/undeconstructed/ladders/board"
	"github.com/undeconstructed/ladders/client"
	"github.com/undeconstructed/ladders/config"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
	"github.com/undeconstructed/ladders/gateway"
	"github.com/undeconstructed/ladders/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config   string
	endpoint string
	gateway  string
	headless bool
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "ladders",
		Short: "Play snakes and ladders against a game server",
		Long: `ladders connects to a snakes and ladders game server, keeps a copy of
the game in sync, and lets you start games, roll and end turns.

Settings come from a TOML file, then LADDERS_* environment variables,
then flags.

Examples:
  ladders --endpoint ws://localhost:5000
  ladders --config ladders.toml --gateway :8080
  ladders --headless --gateway :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cfg, !f.headless)
		},
	}

	cmd.PersistentFlags().StringVarP(&f.config, "config", "c", "", "TOML settings file")
	cmd.Flags().StringVarP(&f.endpoint, "endpoint", "e", "", "game server, ws:// or tcp:// (default from config)")
	cmd.Flags().StringVarP(&f.gateway, "gateway", "g", "", "address for the local web view, empty for none")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "no prompt; print the log and run until interrupted")

	cmd.AddCommand(boardCmd(&f))

	return cmd
}

func boardCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print the configured board and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			b, err := board.New(cfg.BoardSize, cfg.Shortcuts())
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), b, game.EmptyState())
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("endpoint") {
		cfg.Endpoint = f.endpoint
	}
	if cmd.Flags().Changed("gateway") {
		cfg.GatewayAddr = f.gateway
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, interactive bool) error {
	logging.Configure(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	sl := logging.For("session")
	c, err := client.New(client.Config{
		Endpoint:       cfg.Endpoint,
		ReconnectDelay: cfg.ReconnectDelay,
		BoardSize:      cfg.BoardSize,
		Shortcuts:      cfg.Shortcuts(),
		Log:            &sl,
	})
	if err != nil {
		return err
	}

	// readline owns ^C while the prompt is up
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !interactive {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		c.Events().Subscribe(func(e eventlog.Entry) { printEntry(os.Stdout, e) })
	}

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		return c.Run(gctx)
	})

	if cfg.GatewayAddr != "" {
		gw := gateway.New(c, logging.For("gateway"))
		grp.Go(func() error {
			return gw.Run(gctx, cfg.GatewayAddr)
		})
	}

	if interactive {
		r := newRepl(c, os.Stdout)
		grp.Go(func() error {
			defer cancel()
			return r.run(gctx)
		})
	}

	c.Connect()

	err = grp.Wait()
	log.Info().Err(err).Msg("client return")
	return err
}
