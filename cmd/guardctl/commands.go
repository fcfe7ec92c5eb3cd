package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/consistencyguard/internal/app"
	"github.com/agenthands/consistencyguard/internal/consistency"
	"github.com/agenthands/consistencyguard/internal/framework"
)

var frameworkID string

var categorizeCmd = &cobra.Command{
	Use:   "categorize <text>",
	Short: "Print the principle a statement belongs to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategorize,
}

func init() {
	categorizeCmd.Flags().StringVarP(&frameworkID, "framework", "f", "", "restrict to a framework's principles (default: curated set)")

	checkCmd.Flags().StringVar(&pair.Question1, "q1", "", "first question")
	checkCmd.Flags().StringVar(&pair.Answer1, "a1", "", "first answer")
	checkCmd.Flags().StringVar(&pair.Question2, "q2", "", "second question")
	checkCmd.Flags().StringVar(&pair.Answer2, "a2", "", "second answer")
	for _, f := range []string{"q1", "a1", "q2", "a2"} {
		_ = checkCmd.MarkFlagRequired(f)
	}
}

func runCategorize(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var allowed []string
	if frameworkID != "" {
		catalog, err := framework.DefaultCatalog()
		if err != nil {
			return err
		}
		fw, ok := catalog.Lookup(frameworkID)
		if !ok {
			return fmt.Errorf("unknown framework %q", frameworkID)
		}
		allowed = fw.PrincipleNames()
	}

	ctx := cmd.Context()
	c, emb, err := app.NewCategorizer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer emb.Close()

	category, err := c.Categorize(ctx, strings.Join(args, " "), allowed)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), category)
	return nil
}

var pair consistency.Pair

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the reasoning model whether two answers are consistent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		oracle, err := consistency.NewOracleFromConfig(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer oracle.Close()
		v := oracle.Check(cmd.Context(), pair)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	},
}

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the available principle frameworks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := framework.DefaultCatalog()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, fw := range catalog.List() {
			marker := " "
			if fw.ID == catalog.Default {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-8s %s %s\n", marker, fw.ID, fw.Icon, fw.Name)
			for _, p := range fw.PrincipleNames() {
				fmt.Fprintf(out, "    - %s\n", p)
			}
		}
		return nil
	},
}
