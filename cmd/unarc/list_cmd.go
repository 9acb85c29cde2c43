// cmd/unarc/list_cmd.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codedread/unarc/pkg/unarc"
	_ "github.com/codedread/unarc/pkg/unarc/formats"
)

func init() {
	rootCmd.AddCommand(listCmd())
}

func listCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archive entries without extracting",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}

			u, err := unarc.GetUnarchiver(data, nil)
			if err != nil {
				return err
			}

			u.AddEventListener(unarc.KindExtract, unarc.ListenerFunc(func(ev unarc.Event) {
				fmt.Printf("%12s  %s\n", unarc.FormatSize(uint64(len(ev.File.FileData))), ev.File.Filename)
			}))

			collector := unarc.NewCollector()
			collector.Observe(u)

			if err := u.Run(cmd.Context()); err != nil {
				return err
			}
			<-u.Done()

			if err := collector.Err(); err != nil {
				return fmt.Errorf("list failed: %w", err)
			}

			fmt.Printf("\n%d entries (%s archive)\n", collector.TotalFilesExtracted(), u.Format())
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input archive file (required)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
