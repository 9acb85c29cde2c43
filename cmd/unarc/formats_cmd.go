// cmd/unarc/formats_cmd.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codedread/unarc/pkg/unarc"
	_ "github.com/codedread/unarc/pkg/unarc/formats"
)

func init() {
	rootCmd.AddCommand(formatsCmd())
}

func formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported archive formats",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range unarc.Formats() {
				fmt.Println(name)
			}
		},
	}
}
