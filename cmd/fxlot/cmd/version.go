package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the fxlot CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fxlot version %s\n", version)
		fmt.Println("FX position-sizing calculator with a JPY rate pipeline")
		fmt.Println("https://github.com/rustyeddy/fxlot")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
