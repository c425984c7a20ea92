package loggers

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

const (
	App        = "app"
	API        = "api"
	Chain      = "chain"
	History    = "history"
	Enrollment = "enrollment"
	Executor   = "executor"
	Proposal   = "proposal"
	Multisig   = "multisig"
	Storage    = "storage"
)

var w = &LoggerWrapper{
	loggers: map[string]*logrus.Entry{
		App:        newWithModule(logrus.StandardLogger(), App),
		API:        newWithModule(logrus.StandardLogger(), API),
		Chain:      newWithModule(logrus.StandardLogger(), Chain),
		History:    newWithModule(logrus.StandardLogger(), History),
		Enrollment: newWithModule(logrus.StandardLogger(), Enrollment),
		Executor:   newWithModule(logrus.StandardLogger(), Executor),
		Proposal:   newWithModule(logrus.StandardLogger(), Proposal),
		Multisig:   newWithModule(logrus.StandardLogger(), Multisig),
		Storage:    newWithModule(logrus.StandardLogger(), Storage),
	},
}

type LoggerWrapper struct {
	loggers map[string]*logrus.Entry
}

func newWithModule(base *logrus.Logger, module string) *logrus.Entry {
	return base.WithField("module", module)
}

// newModuleLogger gives every module its own logger so levels can differ.
func newModuleLogger(config repo.Log, out io.Writer, module string, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(out)
	l.SetReportCaller(config.ReportCaller)
	if config.EnableJSON {
		l.SetFormatter(&logrus.JSONFormatter{
			DisableTimestamp: config.DisableTimestamp,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			ForceColors:      config.EnableColor,
			DisableColors:    !config.EnableColor,
			DisableTimestamp: config.DisableTimestamp,
			FullTimestamp:    true,
		})
	}
	if level == "" {
		level = config.Level
	}
	l.SetLevel(ParseLevel(level))
	return newWithModule(l, module)
}

func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Initialize builds the module loggers from the repo config. When persist is set,
// log lines are also appended to <repo>/logs/<filename>.log until ctx is done.
func Initialize(ctx context.Context, rep *repo.Repo, persist bool) error {
	config := rep.Config.Log

	var out io.Writer = os.Stdout
	if persist {
		dir := filepath.Join(rep.RepoRoot, repo.LogsDirName)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "log initialize")
		}
		f, err := os.OpenFile(filepath.Join(dir, config.Filename+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrap(err, "log initialize")
		}
		go func() {
			<-ctx.Done()
			_ = f.Close()
		}()
		out = io.MultiWriter(os.Stdout, f)
	}

	m := make(map[string]*logrus.Entry)
	m[App] = newModuleLogger(config, out, App, config.Module.App)
	m[API] = newModuleLogger(config, out, API, config.Module.API)
	m[Chain] = newModuleLogger(config, out, Chain, config.Module.Chain)
	m[History] = newModuleLogger(config, out, History, config.Module.History)
	m[Enrollment] = newModuleLogger(config, out, Enrollment, config.Module.Enrollment)
	m[Executor] = newModuleLogger(config, out, Executor, config.Module.Executor)
	m[Proposal] = newModuleLogger(config, out, Proposal, config.Module.Proposal)
	m[Multisig] = newModuleLogger(config, out, Multisig, config.Module.Multisig)
	m[Storage] = newModuleLogger(config, out, Storage, config.Module.Storage)

	w = &LoggerWrapper{loggers: m}
	return nil
}

func Logger(name string) logrus.FieldLogger {
	if l, ok := w.loggers[name]; ok {
		return l
	}
	return w.loggers[App]
}
