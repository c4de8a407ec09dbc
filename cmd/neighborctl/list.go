package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neighbord/cmd/neighborctl/render"
	"neighbord/internal/ctlsocket"
)

func listCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List interfaces the daemon is watching",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctlsocket.Dial(*socketPath)
			if err != nil {
				return err
			}
			defer client.Close()

			names, err := client.GetInterfaces()
			if err != nil {
				return err
			}

			rows := make([][]string, len(names))
			for i, n := range names {
				rows[i] = []string{n}
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Table([]string{"INTERFACE"}, rows))
			return nil
		},
	}
}
