package main

import (
	"github.com/spf13/cobra"

	"github.com/DeRisk-Technologies/MindKindler-sub001/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.String())
	},
}
