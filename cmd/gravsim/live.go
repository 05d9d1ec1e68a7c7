package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/server"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/viz"
)

func newLiveCmd() *cobra.Command {
	var (
		fps           int
		ticksPerFrame int
		seed          uint64
	)
	cmd := &cobra.Command{
		Use:   "live [template]",
		Short: "interactive terminal viewer (template picker without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("fps") {
				cfg.Live.FPS = fps
			}
			if cmd.Flags().Changed("ticks-per-frame") {
				cfg.Live.TicksPerFrame = ticksPerFrame
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if len(args) == 0 {
				return viz.Run(viz.NewPicker(cfg, tuiLogger()))
			}
			m, err := viz.NewModel(cfg, args[0], tuiLogger())
			if err != nil {
				return err
			}
			return viz.Run(m)
		},
	}
	cmd.Flags().IntVar(&fps, "fps", 30, "frame rate")
	cmd.Flags().IntVar(&ticksPerFrame, "ticks-per-frame", 2, "engine ticks per frame")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "scatter seed")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr          string
		fps           int
		ticksPerFrame int
		seed          uint64
	)
	cmd := &cobra.Command{
		Use:   "serve [template]",
		Short: "stream a running template over websockets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("fps") {
				cfg.Serve.FPS = fps
			}
			if cmd.Flags().Changed("ticks-per-frame") {
				cfg.Serve.TicksPerFrame = ticksPerFrame
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			template := templateArg(args)
			eng, err := sim.NewEngine(cfg, template, cfg.Seed)
			if err != nil {
				return err
			}
			class, opts := cfg.InsertOptions()
			srv := server.New(eng, server.Options{
				FPS:           cfg.Serve.FPS,
				TicksPerFrame: cfg.Serve.TicksPerFrame,
				Class:         class,
				Insert:        opts,
			}, logger.With("template", template))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.Serve.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8081", "listen address")
	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")
	cmd.Flags().IntVar(&ticksPerFrame, "ticks-per-frame", 2, "engine ticks per frame")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "scatter seed")
	return cmd
}
