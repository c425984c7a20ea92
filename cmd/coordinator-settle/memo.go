package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/crunchdao/coordinator-settle/cmd/coordinator-settle/common"
	"github.com/crunchdao/coordinator-settle/internal/memo"
)

var memoCMD = &cli.Command{
	Name:  "memo",
	Usage: "Offline memo payload helpers",
	Subcommands: []*cli.Command{
		{
			Name:      "encode",
			Usage:     "Render key=value pairs as memo JSON and as the memo program log line",
			ArgsUsage: "<key=value>...",
			Action:    memoEncode,
		},
		{
			Name:      "decode",
			Usage:     "Decode a raw memo or a memo log line",
			ArgsUsage: "<memo>",
			Action:    memoDecode,
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:  "require",
					Usage: "keys the payload must carry",
					Value: cli.NewStringSlice("cert_pub", "hotkey"),
				},
			},
		},
	},
}

func memoEncode(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.ShowSubcommandHelp(ctx)
	}
	payload := memo.Payload{}
	for _, arg := range ctx.Args().Slice() {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return errors.Errorf("invalid pair %q, expected key=value", arg)
		}
		payload[k] = v
	}
	fmt.Println(payload.JSON())
	fmt.Println(memo.LogLine(payload))
	return nil
}

func memoDecode(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowSubcommandHelp(ctx)
	}
	payload, ok := memo.NewSchema(ctx.StringSlice("require")...).Decode(ctx.Args().First())
	if !ok {
		return errors.New("memo rejected: not a flat JSON object carrying every required key")
	}
	return common.Pretty(payload)
}
