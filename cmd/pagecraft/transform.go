package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/pagecraft/internal/config"
	"github.com/dgallion1/pagecraft/internal/engine"
	"github.com/dgallion1/pagecraft/internal/fallback"
	"github.com/dgallion1/pagecraft/internal/loader"
	"github.com/spf13/cobra"
)

type transformFlags struct {
	instruction string
	output      string
	noNav       bool
	noPrettify  bool
	useFallback bool
}

func newTransformCmd() *cobra.Command {
	var f transformFlags
	cmd := &cobra.Command{
		Use:   "transform [file]",
		Short: "Transform a file, or stdin, according to an instruction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.instruction, "instruction", "i", "", "What to do, in plain language")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the result here instead of stdout")
	cmd.Flags().BoolVar(&f.noNav, "no-nav", false, "Never generate navigation")
	cmd.Flags().BoolVar(&f.noPrettify, "no-prettify", false, "Leave markup unformatted")
	cmd.Flags().BoolVar(&f.useFallback, "fallback", false, "Try the configured language model first")
	cmd.MarkFlagRequired("instruction")
	return cmd
}

func runTransform(cmd *cobra.Command, args []string, f transformFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	opts := cfg.EngineOptions()
	opts.PreferExternalFallback = f.useFallback
	if f.noNav {
		opts.AutoDetectNav = false
	}
	if f.noPrettify {
		opts.Prettify = false
	}

	var gf engine.GenerativeFallback
	if f.useFallback {
		collab, err := fallback.New(cfg.Fallback(), nil, log)
		if err != nil {
			return err
		}
		if collab == nil {
			log.Warn("no generative provider configured, using rules only")
		} else {
			gf = collab
		}
	}

	res, err := engine.New(gf, log).Transform(cmd.Context(), input, f.instruction, opts)
	if err != nil {
		return err
	}

	if f.output == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), res.Output)
		return err
	}
	if err := os.WriteFile(f.output, []byte(res.Output), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info("wrote result", "path", f.output, "kind", res.Kind, "source", res.Source)
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		src, err := loader.Load(data, args[0])
		if err != nil {
			return "", err
		}
		return src.Text, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return loader.DecodeText(data)
}
