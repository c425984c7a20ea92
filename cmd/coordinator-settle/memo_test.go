package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runMemo(args ...string) error {
	app := cli.NewApp()
	app.Commands = []*cli.Command{memoCMD}
	return app.Run(append([]string{"coordinator-settle", "memo"}, args...))
}

func TestMemoEncode(t *testing.T) {
	require.Nil(t, runMemo("encode", "cert_pub=AAAA", "hotkey=BBBB"))
	require.NotNil(t, runMemo("encode", "no-separator"))
	require.NotNil(t, runMemo("encode", "=value"))
}

func TestMemoDecode(t *testing.T) {
	require.Nil(t, runMemo("decode", `{"cert_pub":"AAAA","hotkey":"BBBB"}`))
	require.Nil(t, runMemo("decode", `Program log: Memo (len 35): "{\"cert_pub\":\"AAAA\",\"hotkey\":\"BBBB\"}"`))
	require.Nil(t, runMemo("decode", "--require", "hotkey", `{"hotkey":"BBBB"}`))
	require.NotNil(t, runMemo("decode", `{"hotkey":"BBBB"}`))
	require.NotNil(t, runMemo("decode", "not json"))
}
