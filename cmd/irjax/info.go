package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"irjax/internal/program"
)

var infoCmd = &cobra.Command{
	Use:   "info <program>...",
	Short: "Show the class metadata of programs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classes, err := resolvePrograms(program.Default, args)
		if err != nil {
			return err
		}
		for i, cls := range classes {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err := printClassInfo(cmd.OutOrStdout(), cls); err != nil {
				return err
			}
		}
		return nil
	},
}

var (
	infoTitleColor   = color.New(color.FgCyan, color.Bold)
	infoSectionColor = color.New(color.Bold)
)

func printClassInfo(w io.Writer, cls *program.Class) error {
	ci, err := program.GetClassInfo(cls)
	if err != nil {
		return err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (export name %q)\n", infoTitleColor.Sprint(cls.Name()), ci.ExportName())
	if gs := ci.Globals(); len(gs) > 0 {
		fmt.Fprintf(&sb, "%s\n", infoSectionColor.Sprint("globals:"))
		for _, g := range gs {
			fmt.Fprintf(&sb, "  %s\n", g)
			if names := g.LeafNames(); len(names) > 1 {
				fmt.Fprintf(&sb, "    leaves: %s\n", strings.Join(names, ", "))
			}
		}
	}
	if ks := ci.Kernels(); len(ks) > 0 {
		fmt.Fprintf(&sb, "%s\n", infoSectionColor.Sprint("kernels:"))
		for _, k := range ks {
			fmt.Fprintf(&sb, "  %s\n", k)
		}
	}
	if fs := ci.Functions(); len(fs) > 0 {
		fmt.Fprintf(&sb, "%s\n", infoSectionColor.Sprint("functions:"))
		for _, f := range fs {
			fmt.Fprintf(&sb, "  %s\n", f)
		}
	}
	_, err = io.WriteString(w, sb.String())
	return err
}
