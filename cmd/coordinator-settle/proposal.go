package main

import (
	"github.com/urfave/cli/v2"

	"github.com/crunchdao/coordinator-settle/cmd/coordinator-settle/common"
)

var proposalCMD = &cli.Command{
	Name:  "proposal",
	Usage: "The multisig proposal commands, served by a running daemon",
	Subcommands: []*cli.Command{
		{
			Name:   "mode",
			Usage:  "Show the execution mode and the authority of the session",
			Action: proposalMode,
		},
		{
			Name:   "pending",
			Usage:  "List the proposals the daemon is watching",
			Action: proposalPending,
		},
		{
			Name:      "status",
			Usage:     "Query the on-chain status, votes and threshold of a proposal",
			ArgsUsage: "<proposal-id>",
			Action:    proposalStatus,
		},
		{
			Name:      "approve",
			Usage:     "Approve a proposal with the session wallet",
			ArgsUsage: "<proposal-id>",
			Action:    proposalAction("settle_approveProposal"),
		},
		{
			Name:      "execute",
			Usage:     "Execute an approved proposal with the session wallet",
			ArgsUsage: "<proposal-id>",
			Action:    proposalAction("settle_executeProposal"),
		},
	},
}

func proposalMode(ctx *cli.Context) error {
	if err := common.Call(ctx, "settle_executionMode"); err != nil {
		return err
	}
	return common.Call(ctx, "settle_authority")
}

func proposalPending(ctx *cli.Context) error {
	return common.Call(ctx, "settle_pendingProposals")
}

func proposalStatus(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowSubcommandHelp(ctx)
	}
	return common.Call(ctx, "settle_proposalStatus", ctx.Args().First())
}

func proposalAction(method string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return cli.ShowSubcommandHelp(ctx)
		}
		return common.Call(ctx, method, ctx.Args().First())
	}
}
