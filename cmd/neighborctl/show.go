package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neighbord/cmd/neighborctl/render"
	"neighbord/internal/ctlsocket"
)

func showCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <interface>",
		Short: "Show a local interface's neighbor table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctlsocket.Dial(*socketPath)
			if err != nil {
				return err
			}
			defer client.Close()

			view, err := client.GetInterface(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", render.Accent(view.IfName), render.Muted(view.MediaKind))

			rows := make([][]string, len(view.Neighbors))
			for i, n := range view.Neighbors {
				chassisName := "-"
				if n.Port.Chassis != nil {
					chassisName = n.Port.Chassis.SysName
				}
				rows[i] = []string{chassisName, n.Port.Descr, n.TTL.String()}
			}
			fmt.Fprintln(out, render.Table([]string{"CHASSIS", "PORT", "TTL"}, rows))
			return nil
		},
	}
}
