package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/forcekit/forceclient/pkg/client"
)

// batchCmd submits each argument as a GET sub-request through the
// composite-batch endpoint and prints the per-sub-request outcomes.
var batchCmd = &cobra.Command{
	Use:   "batch <action>...",
	Short: "Fetch several action paths in one composite batch",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		subs := make([]client.SubRequest, len(args))
		for i, action := range args {
			subs[i] = client.NewSubRequest(action)
		}

		resp, err := s.Batch(cmd.Context(), subs, nil)
		if err != nil {
			return err
		}

		for i, result := range resp.Results {
			pterm.Printfln("[%d] %s (status %d)", i, args[i], result.StatusCode)
			pterm.Println(string(result.Result))
		}
		if resp.HasErrors {
			pterm.Warning.Println("One or more sub-requests reported errors")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
