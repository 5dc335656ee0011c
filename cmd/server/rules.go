package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mediguard/internal/core"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the red-flag rules in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRules(cmd.OutOrStdout(), core.DefaultRedFlags)
		},
	}
}

func printRules(w io.Writer, rules core.RedFlagRules) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRULE\tKEYWORDS")
	for i, r := range rules {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.Name, strings.Join(r.Keywords, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	for i, r := range rules {
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Action)
	}
	return nil
}
