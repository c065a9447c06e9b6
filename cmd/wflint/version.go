package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wflint/internal/rules"
	"wflint/internal/version"
)

type versionPayload struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version"`
	GitCommit string   `json:"git_commit,omitempty"`
	BuildDate string   `json:"build_date,omitempty"`
	Rules     []string `json:"rules,omitempty"`
}

var (
	versionFormat    string
	versionShowRules bool
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionShowRules, "rules", false, "list the built-in rules")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show wflint build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		colorStr, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return err
		}
		useColor, err := readColor(colorStr)
		if err != nil {
			return err
		}
		color.NoColor = !useColor

		switch strings.ToLower(versionFormat) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout(), versionShowRules)
		case "pretty", "":
			renderVersionPretty(cmd.OutOrStdout(), versionShowRules)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func renderVersionPretty(out io.Writer, withRules bool) {
	fmt.Fprintln(out, version.Banner())
	if !withRules {
		return
	}
	fmt.Fprintln(out, "rules:")
	for _, name := range rules.Names() {
		fmt.Fprintf(out, "  %s\n", name)
	}
}

func renderVersionJSON(out io.Writer, withRules bool) error {
	payload := versionPayload{
		Tool:      "wflint",
		Version:   version.Version,
		GitCommit: version.Commit(),
		BuildDate: version.BuildDate,
	}
	if withRules {
		payload.Rules = rules.Names()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
