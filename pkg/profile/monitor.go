package profile

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/pkg/loggers"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

type Monitor struct {
	enable bool
	port   int64
	server *http.Server
	logger logrus.FieldLogger
}

func NewMonitor(config *repo.Config) (*Monitor, error) {
	return &Monitor{
		enable: config.Monitor.Enable,
		port:   config.Port.Monitor,
		logger: loggers.Logger(loggers.App),
	}, nil
}

func (m *Monitor) Start() error {
	if !m.enable {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", m.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.WithField("port", m.port).Info("Start monitor")
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.WithField("err", err).Error("Monitor stopped unexpectedly")
		}
	}()
	return nil
}

func (m *Monitor) Stop() error {
	if m.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.server.Shutdown(ctx)
}
