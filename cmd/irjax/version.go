package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"irjax/internal/program"
	"irjax/internal/version"
)

// buildReport is what `irjax version` knows about this binary: the build
// stamp and the export names of the programs linked into it.
type buildReport struct {
	Version   string   `json:"version"`
	GitCommit string   `json:"git_commit,omitempty"`
	BuildDate string   `json:"build_date,omitempty"`
	Programs  []string `json:"programs"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the irjax build and the programs linked into it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		report, err := collectBuildReport(program.Default)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		return writeBuildReport(cmd.OutOrStdout(), report)
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "print the report as JSON")
}

func collectBuildReport(reg *program.Registry) (buildReport, error) {
	report := buildReport{
		Version:   version.Version,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
		Programs:  []string{},
	}
	for _, cls := range reg.Classes() {
		ci, err := reg.GetClassInfo(cls)
		if err != nil {
			return report, err
		}
		report.Programs = append(report.Programs, ci.ExportName())
	}
	return report, nil
}

func writeBuildReport(w io.Writer, r buildReport) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "irjax %s", version.Colored())
	if r.GitCommit != "" {
		fmt.Fprintf(&sb, " (%s", r.GitCommit)
		if r.BuildDate != "" {
			fmt.Fprintf(&sb, ", %s", r.BuildDate)
		}
		sb.WriteString(")")
	}
	fmt.Fprintf(&sb, "\nprograms: %s\n", strings.Join(r.Programs, ", "))
	_, err := io.WriteString(w, sb.String())
	return err
}
