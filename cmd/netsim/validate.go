package main

import (
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/netsim-project/netsim"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <topology.xml>",
		Short: "Parse a topology file and report whether it is well-formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel()
			net, err := netsim.LoadTopology(args[0], log.Log, netsim.TickStep)
			if err != nil {
				return err
			}
			fmt.Printf("netsim: %s: %d hosts, %d routers, %d links, %d flows\n",
				args[0], net.HostCount(), net.RouterCount(), net.LinkCount(), len(net.Flows()))
			log.Infof("netsim: %s is a well-formed topology", args[0])
			return nil
		},
	}
}
