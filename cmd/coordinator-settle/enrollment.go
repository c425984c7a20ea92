package main

import (
	"github.com/urfave/cli/v2"

	"github.com/crunchdao/coordinator-settle/cmd/coordinator-settle/common"
)

var enrollmentCMD = &cli.Command{
	Name:  "enrollment",
	Usage: "The certificate enrollment commands, served by a running daemon",
	Subcommands: []*cli.Command{
		{
			Name:      "status",
			Usage:     "Show the enrollment state of addresses (the session authority by default)",
			ArgsUsage: "[address...]",
			Action:    enrollmentStatus,
		},
		{
			Name:      "enroll",
			Usage:     "Publish a certificate enrollment memo for the session authority",
			ArgsUsage: "<cert-pub>",
			Action:    enroll,
		},
	},
}

func enrollmentStatus(ctx *cli.Context) error {
	switch ctx.NArg() {
	case 0:
	case 1:
		return common.Call(ctx, "settle_enrollmentStatus", ctx.Args().First())
	default:
		return common.Call(ctx, "settle_enrollmentStatuses", ctx.Args().Slice())
	}
	return common.Call(ctx, "settle_enrollmentStatus")
}

func enroll(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowSubcommandHelp(ctx)
	}
	return common.Call(ctx, "settle_enrollCertificate", ctx.Args().First())
}
