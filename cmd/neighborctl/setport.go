package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neighbord/cmd/neighborctl/render"
	"neighbord/internal/ctlsocket"
)

func setPortCmd(socketPath *string) *cobra.Command {
	var description string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "set-port <interface>",
		Short: "Change a local port's description or enabled state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctlsocket.Dial(*socketPath)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.SetPort(args[0], description, disabled); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), render.ErrorMsg("%v", err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.InfoMsg("updated %s", args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "port description to advertise")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "stop advertising on this port")
	return cmd
}
