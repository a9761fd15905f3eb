package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/polycash/blockvm/internal/host"
)

func newQueryCommand(opts *options) *cobra.Command {
	node := func() (*host.Node, error) {
		path, err := opts.cfg.NodePath()
		if err != nil {
			return nil, err
		}
		return host.NewNode(path), nil
	}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send a sanitized query to the node",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "len",
			Short: "Print the blockchain length",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				n, err := node()
				if err != nil {
					return err
				}
				length, err := n.GetBlockchainLen(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), length)
				return nil
			},
		},
		&cobra.Command{
			Use:   "block <n> <property>",
			Short: "Print a property of the n-th block",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				block, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return err
				}
				n, err := node()
				if err != nil {
					return err
				}
				v, err := n.GetNthBlockProperty(cmd.Context(), block, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "tx <block> <tx> <property>",
			Short: "Print a property of a transaction",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				block, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return err
				}
				tx, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return err
				}
				n, err := node()
				if err != nil {
					return err
				}
				v, err := n.GetNthTransactionProperty(cmd.Context(), block, tx, args[2])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
	)
	return cmd
}
