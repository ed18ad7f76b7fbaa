package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/botirk38/semsim"
	"github.com/botirk38/semsim/config"
	"github.com/botirk38/semsim/options"
	"github.com/botirk38/semsim/reasoner"
	"github.com/botirk38/semsim/types"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	hierarchy  string
	top        string
	cacheDir   string

	settings *config.Settings
	engine   *semsim.Engine
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "semsim",
		Short: "Semantic similarity over an ontology and its annotations",
		Long: "semsim loads a term hierarchy with element annotations and computes\n" +
			"information content, lowest common subsumers and similarity scores.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.engine == nil {
				return nil
			}
			return opts.engine.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: SEMSIM_* environment only)")
	pf.StringVar(&opts.hierarchy, "hierarchy", "", "hierarchy file (overrides the hierarchy setting)")
	pf.StringVar(&opts.top, "top", string(reasoner.DefaultTop), "root term of the hierarchy")
	pf.StringVar(&opts.cacheDir, "cache-dir", "", "directory for TSV cache snapshots (overrides backend settings)")

	cmd.AddCommand(
		newICCommand(opts),
		newLCSCommand(opts),
		newSimCommand(opts),
		newCompareCommand(opts),
		newPairsCommand(opts),
		newCacheCommand(opts),
	)
	return cmd
}

func (o *rootOptions) init() error {
	var err error
	if o.configPath != "" {
		o.settings, err = config.Load(o.configPath)
	} else {
		o.settings, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if o.hierarchy != "" {
		o.settings.Hierarchy = o.hierarchy
	}
	if o.settings.Hierarchy == "" {
		return errors.New("no hierarchy file - use --hierarchy or the hierarchy setting")
	}
	if o.cacheDir != "" {
		o.settings.Backend.Type = string(types.BackendFile)
		o.settings.Backend.Path = o.cacheDir
	}

	h := reasoner.NewHierarchy(types.Term(o.top))
	f, err := os.Open(o.settings.Hierarchy)
	if err != nil {
		return fmt.Errorf("open hierarchy: %w", err)
	}
	defer f.Close()
	if err := reasoner.Load(f, h); err != nil {
		return fmt.Errorf("%s: %w", o.settings.Hierarchy, err)
	}

	o.engine, err = semsim.New(append(o.settings.Options(), options.WithReasoner(h))...)
	return err
}
