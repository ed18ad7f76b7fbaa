package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/botirk38/semsim"
	"github.com/botirk38/semsim/types"
	"github.com/spf13/cobra"
)

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

func formatTerms(s types.Set[types.Term]) string {
	terms := types.Sorted(s)
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func newICCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ic TERM...",
		Short: "Print the information content of terms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, arg := range args {
				v, ok, err := opts.engine.IC(types.Term(arg))
				if err != nil {
					return err
				}
				value := "-"
				if ok {
					value = formatScore(v)
				}
				fmt.Fprintf(w, "%s\t%s\n", arg, value)
			}
			return nil
		},
	}
}

func newLCSCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lcs TERM TERM",
		Short: "Print the most informative lowest common subsumer of two terms",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sap, ok, err := opts.engine.LCSWithIC(types.Term(args[0]), types.Term(args[1]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t-\t-\n", args[0], args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", args[0], args[1], formatScore(sap.Score), sap.Attribute)
			return nil
		},
	}
}

func newSimCommand(opts *rootOptions) *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "sim TERM TERM",
		Short: "Score two terms with a metric",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := types.ParseMetric(metric)
			if err != nil {
				return err
			}
			score, err := opts.engine.AttributeSimilarity(types.Term(args[0]), types.Term(args[1]), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", args[0], args[1], m, formatScore(score))
			return nil
		},
	}
	cmd.Flags().StringVarP(&metric, "metric", "m", string(types.MetricJaccard), "JACCARD, SIMJ, OVERLAP, NORMALIZED_OVERLAP, DICE, LCSIC")
	return cmd
}

func newCompareCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "compare ELEMENT ELEMENT",
		Short: "Print every score for an element pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.engine.CompareElements(types.Element(args[0]), types.Element(args[1]))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			return writeProfile(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeProfile(w io.Writer, s *semsim.ElementPairScores) error {
	rows := []struct {
		name  string
		score float64
		terms types.Set[types.Term]
	}{
		{"simj", s.SimJ, nil},
		{"asym_simj", s.AsymSimJ, nil},
		{"max_ic", s.MaxIC.Score, s.MaxIC.Attributes},
		{"bma_a_to_b", s.BMAAToB.Score, s.BMAAToB.Attributes},
		{"bma_b_to_a", s.BMABToA.Score, s.BMABToA.Attributes},
		{"bma", s.BMA.Score, s.BMA.Attributes},
		{"graph_ic", s.GraphIC, nil},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.name, formatScore(r.score), formatTerms(r.terms)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "passes_thresholds\t%t\n", s.PassesThresholds)
	return err
}

func newPairsCommand(opts *rootOptions) *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "Score every pair of elements with a metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := types.ParseMetric(metric)
			if err != nil {
				return err
			}
			pairs, err := allPairs(opts.engine)
			if err != nil {
				return err
			}
			if err := opts.engine.Warm(cmd.Context()); err != nil {
				return err
			}
			scores, err := opts.engine.ComparePairs(cmd.Context(), pairs, m)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, s := range scores {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.A, s.B, formatScore(s.Score))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&metric, "metric", "m", string(types.MetricICMCS), "JACCARD, SIMJ, DICE, OVERLAP, NORMALIZED_OVERLAP, GIC, MAXIC, IC_MCS")
	return cmd
}

// allPairs returns each unordered pair of distinct elements once.
func allPairs(e *semsim.Engine) ([]semsim.ElementPair, error) {
	elements, err := e.AllElements()
	if err != nil {
		return nil, err
	}
	var pairs []semsim.ElementPair
	for i, a := range elements {
		for _, b := range elements[i+1:] {
			pairs = append(pairs, semsim.ElementPair{A: a, B: b})
		}
	}
	return pairs, nil
}

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Build, save and inspect IC and LCS cache snapshots",
	}

	var threshold float64
	save := &cobra.Command{
		Use:   "save",
		Short: "Compare every element pair and save the IC table and LCS pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pairs, err := allPairs(opts.engine)
			if err != nil {
				return err
			}
			if err := opts.engine.Warm(cmd.Context()); err != nil {
				return err
			}
			if _, err := opts.engine.ComparePairs(cmd.Context(), pairs, types.MetricICMCS); err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = opts.settings.Thresholds.MinimumLCSIC
			}
			if err := opts.engine.Save(cmd.Context(), &threshold); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d pairs, minimum LCS IC %s\n", len(pairs), formatScore(threshold))
			return nil
		},
	}
	save.Flags().Float64Var(&threshold, "threshold", 0, "minimum LCS IC to keep (default: thresholds.minimum_lcs_ic)")

	load := &cobra.Command{
		Use:   "load TERM TERM",
		Short: "Load the snapshots and look up one LCS pair in them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.engine.Load(cmd.Context()); err != nil {
				return err
			}
			sap, ok, err := opts.engine.LCSWithIC(types.Term(args[0]), types.Term(args[1]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tbelow threshold\n", args[0], args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", args[0], args[1], formatScore(sap.Score), sap.Attribute)
			return nil
		},
	}

	cmd.AddCommand(save, load)
	return cmd
}
