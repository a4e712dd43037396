package cmd

import (
	"encoding/json"
	"fmt"

	"lendrisk/store/snapshot"

	"github.com/spf13/cobra"
)

var valuateCmd = &cobra.Command{
	Use:   "valuate [obligation id]",
	Short: "build one read model and print it, or one obligation of it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		chainReader := provideChainReader()
		p := providePoller(chainReader, provideReserveConfigStore(chainReader), nil, nil, snapshot.New())

		model, err := p.Build(ctx)
		if err != nil {
			return err
		}

		var v interface{} = model
		if len(args) == 1 {
			report, ok := model.Obligations[args[0]]
			if !ok {
				return fmt.Errorf("obligation %s not found", args[0])
			}
			v = report
		}

		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}

		cmd.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(valuateCmd)
}
