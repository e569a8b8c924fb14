package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"irjax/internal/program"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered programs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listPrograms(cmd, program.Default)
	},
}

func listPrograms(cmd *cobra.Command, reg *program.Registry) error {
	header := []string{"PROGRAM", "EXPORT NAME", "FUNCTIONS", "GLOBALS", "KERNELS"}
	var rows [][]string
	for _, cls := range reg.Classes() {
		ci, err := reg.GetClassInfo(cls)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			cls.Name(),
			ci.ExportName(),
			strconv.Itoa(len(ci.Functions())),
			strconv.Itoa(len(ci.Globals())),
			strconv.Itoa(len(ci.Kernels())),
		})
	}
	return writeTable(cmd.OutOrStdout(), header, rows)
}
