package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/crunchdao/coordinator-settle/cmd/coordinator-settle/common"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

var configGenerateArgs = struct {
	Network string
	Keypair string
}{}

var configCMD = &cli.Command{
	Name:  "config",
	Usage: "The config manage commands",
	Subcommands: []*cli.Command{
		{
			Name:   "generate",
			Usage:  "Generate default config (if not exist)",
			Action: generate,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "network",
					Usage:       "preset to start from (mainnet or devnet), empty for local defaults",
					Destination: &configGenerateArgs.Network,
					Required:    false,
				},
				&cli.StringFlag{
					Name:        "keypair",
					Usage:       "solana-keygen keypair file of the session",
					Destination: &configGenerateArgs.Keypair,
					Required:    false,
				},
			},
		},
		{
			Name:   "show",
			Usage:  "Show the complete config processed by the environment variable",
			Action: show,
		},
		{
			Name:   "check",
			Usage:  "Check if the config file is valid",
			Action: check,
		},
	},
}

func generate(ctx *cli.Context) error {
	p, err := common.GetRootPath(ctx)
	if err != nil {
		return err
	}
	if repo.Exist(filepath.Join(p, repo.CfgFileName)) {
		fmt.Printf("%s repo already exists\n", repo.AppName)
		return nil
	}

	if !repo.Exist(p) {
		err = os.MkdirAll(p, 0755)
		if err != nil {
			return err
		}
	}

	r, err := repo.Default(p)
	if err != nil {
		return err
	}
	if configGenerateArgs.Network != "" {
		builder, ok := repo.NetConfigBuilderMap[configGenerateArgs.Network]
		if !ok {
			return errors.Errorf("unknown network %s", configGenerateArgs.Network)
		}
		r.Config = builder()
	}
	if configGenerateArgs.Keypair != "" {
		r.Config.Chain.Keypair = configGenerateArgs.Keypair
	}
	if err := r.Flush(); err != nil {
		return err
	}
	fmt.Printf("config successfully generated in %s\n", p)
	return nil
}

func show(ctx *cli.Context) error {
	r, err := common.PrepareRepo(ctx)
	if err != nil {
		return err
	}
	str, err := repo.MarshalConfig(r.Config)
	if err != nil {
		return err
	}
	fmt.Println(str)
	return nil
}

func check(ctx *cli.Context) error {
	r, err := common.PrepareRepo(ctx)
	if err != nil {
		fmt.Println("config file format error, please check:", err)
		os.Exit(1)
		return nil
	}
	r.PrintRepoInfo(func(c string) {
		fmt.Println(c)
	})
	return nil
}
