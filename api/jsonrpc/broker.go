package jsonrpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crunchdao/coordinator-settle/api/jsonrpc/namespaces/settle"
	"github.com/crunchdao/coordinator-settle/pkg/loggers"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

const Namespace = "settle"

// SettleService serves the settle_* JSON-RPC namespace over HTTP.
type SettleService struct {
	rep        *repo.Repo
	rpcServer  *rpc.Server
	httpServer *http.Server
	listener   net.Listener
	logger     logrus.FieldLogger
}

func NewSettleService(backend settle.Backend, rep *repo.Repo) (*SettleService, error) {
	logger := loggers.Logger(loggers.API)
	srv := rpc.NewServer()
	if err := srv.RegisterName(Namespace, settle.NewSettleAPI(rep, backend, logger)); err != nil {
		return nil, errors.Wrap(err, "register settle api")
	}
	return &SettleService{
		rep:       rep,
		rpcServer: srv,
		logger:    logger,
	}, nil
}

// Server exposes the underlying rpc server, for in-process clients.
func (s *SettleService) Server() *rpc.Server {
	return s.rpcServer
}

func (s *SettleService) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.rep.Config.Port.JsonRpc))
	if err != nil {
		return errors.Wrap(err, "listen jsonrpc port")
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.rpcServer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("JSON-RPC service started")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("err", err).Error("JSON-RPC service stopped unexpectedly")
		}
	}()
	return nil
}

// Addr is the bound address once started.
func (s *SettleService) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *SettleService) Stop() error {
	defer s.rpcServer.Stop()
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "stop jsonrpc service")
	}
	s.logger.Info("JSON-RPC service stopped")
	return nil
}
