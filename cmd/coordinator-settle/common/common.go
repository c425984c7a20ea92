package common

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

var RPCFlagVar string

// RPCFlag overrides the daemon endpoint, which otherwise comes from the repo config.
func RPCFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "rpc",
		Usage:       "JSON-RPC endpoint of a running daemon",
		EnvVars:     []string{"COORDINATOR_SETTLE_RPC"},
		Destination: &RPCFlagVar,
		Required:    false,
	}
}

func Pretty(d any) error {
	res, err := json.MarshalIndent(d, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(res))
	return nil
}

func GetRootPath(ctx *cli.Context) (string, error) {
	p := ctx.String("repo")

	var err error
	if p == "" {
		p, err = repo.LoadRepoRootFromEnv(p)
		if err != nil {
			return "", err
		}
	}
	return p, nil
}

func PrepareRepo(ctx *cli.Context) (*repo.Repo, error) {
	p, err := GetRootPath(ctx)
	if err != nil {
		return nil, err
	}
	if !repo.Exist(filepath.Join(p, repo.CfgFileName)) {
		return nil, errors.Errorf("%s repo not exist in %s, please execute 'config generate' first", repo.AppName, p)
	}
	return repo.Load(p)
}

// DialDaemon connects to the settle namespace of a running daemon.
func DialDaemon(ctx *cli.Context) (*rpc.Client, error) {
	endpoint := RPCFlagVar
	if endpoint == "" {
		r, err := PrepareRepo(ctx)
		if err != nil {
			return nil, err
		}
		endpoint = fmt.Sprintf("http://127.0.0.1:%d", r.Config.Port.JsonRpc)
	}
	client, err := rpc.DialContext(context.Background(), endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "dial daemon %s", endpoint)
	}
	return client, nil
}

// Call invokes a settle method on the daemon and pretty prints the raw result.
func Call(ctx *cli.Context, method string, args ...any) error {
	client, err := DialDaemon(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	var res json.RawMessage
	if err := client.CallContext(ctx.Context, &res, method, args...); err != nil {
		return errors.Wrapf(err, "call %s", method)
	}
	var v any
	if err := json.Unmarshal(res, &v); err != nil {
		return err
	}
	return Pretty(v)
}
