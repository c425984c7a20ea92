package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/crunchdao/coordinator-settle/api/jsonrpc"
	"github.com/crunchdao/coordinator-settle/api/jsonrpc/namespaces/settle"
	"github.com/crunchdao/coordinator-settle/cmd/coordinator-settle/common"
	"github.com/crunchdao/coordinator-settle/internal/app"
	"github.com/crunchdao/coordinator-settle/pkg/loggers"
	"github.com/crunchdao/coordinator-settle/pkg/profile"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

var _ settle.Backend = (*app.CoordinatorSettle)(nil)

func start(ctx *cli.Context) error {
	r, err := common.PrepareRepo(ctx)
	if err != nil {
		return err
	}

	appCtx, cancel := context.WithCancel(ctx.Context)
	if err := loggers.Initialize(appCtx, r, true); err != nil {
		cancel()
		return err
	}
	defer cancel()

	log := loggers.Logger(loggers.App)
	printVersion(func(c string) {
		log.Info(c)
	})
	r.PrintRepoInfo(func(c string) {
		log.Info(c)
	})

	var wg sync.WaitGroup
	err = func() error {
		if err := repo.WritePid(r.RepoRoot); err != nil {
			return fmt.Errorf("write pid error: %s", err)
		}

		cs, err := app.NewCoordinatorSettle(r, appCtx, cancel)
		if err != nil {
			return fmt.Errorf("init coordinator-settle failed: %w", err)
		}

		monitor, err := profile.NewMonitor(r.Config)
		if err != nil {
			return err
		}
		if err := monitor.Start(); err != nil {
			return err
		}

		// start json-rpc service
		svc, err := jsonrpc.NewSettleService(cs, r)
		if err != nil {
			return err
		}
		if err := svc.Start(); err != nil {
			return fmt.Errorf("start settle json-rpc service failed: %w", err)
		}

		wg.Add(1)
		handleShutdown(cs, svc, monitor, &wg)

		if err := cs.Start(); err != nil {
			return fmt.Errorf("start coordinator-settle failed: %w", err)
		}

		return nil
	}()
	if err != nil {
		log.WithField("err", err).Error("Startup failed")
		return err
	}

	wg.Wait()

	if err := repo.RemovePID(r.RepoRoot); err != nil {
		log.WithField("err", err).Error("Remove pid failed")
		return fmt.Errorf("remove pid file error: %s", err)
	}

	return nil
}

func printVersion(writer func(c string)) {
	writer(fmt.Sprintf("%s version: %s-%s-%s", repo.AppName, repo.BuildVersion, repo.BuildBranch, repo.BuildCommit))
	writer(fmt.Sprintf("App build date: %s", repo.BuildDate))
	writer(fmt.Sprintf("System version: %s", repo.Platform))
	writer(fmt.Sprintf("Golang version: %s", repo.GoVersion))
}

func handleShutdown(node *app.CoordinatorSettle, svc *jsonrpc.SettleService, monitor *profile.Monitor, wg *sync.WaitGroup) {
	var stop = make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGTERM)
	signal.Notify(stop, syscall.SIGINT)

	go func() {
		<-stop
		fmt.Println("received interrupt signal, shutting down...")
		if err := svc.Stop(); err != nil {
			fmt.Println(err)
		}
		if err := monitor.Stop(); err != nil {
			fmt.Println(err)
		}
		if err := node.Stop(); err != nil {
			panic(err)
		}
		wg.Done()
	}()
}
