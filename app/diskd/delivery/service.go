package delivery

import (
	"log"
	"net"
	"net/http"
	"net/rpc"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chanyoung/ecdisk/app/diskd/usecase/diskapi"
	"github.com/chanyoung/ecdisk/pkg/diskmux"
	"github.com/chanyoung/ecdisk/pkg/diskrpc"
	"github.com/chanyoung/ecdisk/pkg/util/config"
	"github.com/chanyoung/ecdisk/pkg/util/mlog"
)

var logger *logrus.Entry

// Service runs both transports of the disk server on one port: the
// control channel and the http streaming endpoints, demultiplexed by
// the first byte of each connection.
type Service struct {
	diskMux *diskmux.Mux

	rpcL  *diskmux.Layer
	httpL *diskmux.Layer

	httpSrv *http.Server

	rpcSrv   *rpc.Server
	handlers diskapi.Handlers
}

// SetupDeliveryService creates a delivery service with necessary dependencies.
func SetupDeliveryService(cfg *config.Diskd, h diskapi.Handlers) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("invalid nil arguments")
	}
	logger = mlog.GetPackageLogger("app/diskd/delivery")

	s := &Service{
		handlers: h,
	}

	addr := cfg.ServerAddr + ":" + cfg.ServerPort
	rAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "resolve disk server address failed")
	}

	// Create transport layers.
	s.rpcL = diskmux.NewLayer(rpcTypeBytes(), rAddr, false)
	s.httpL = diskmux.NewLayer(httpTypeBytes(), rAddr, true)

	// Create a mux and register layers.
	s.diskMux = diskmux.NewMux(addr, &cfg.Security)
	s.diskMux.RegisterLayer(s.rpcL)
	s.diskMux.RegisterLayer(s.httpL)

	// Create http server. Read and write timeouts stay unset, the
	// streaming endpoints hold connections open for as long as the
	// transfer takes.
	s.httpSrv = &http.Server{
		Handler:        makeHandler(h, cfg.Security.AuthToken),
		MaxHeaderBytes: 1 << 20,
		ErrorLog:       log.New(logger.Writer(), "http server", log.Lshortfile),
	}

	// Create the control channel server.
	s.rpcSrv = rpc.NewServer()
	if err := s.rpcSrv.RegisterName(diskrpc.DiskRPCPrefix, h); err != nil {
		return nil, err
	}

	s.run()

	return s, nil
}

// run starts the disk delivery service.
func (s *Service) run() {
	ctxLogger := mlog.GetMethodLogger(logger, "Service.run")
	ctxLogger.Info("start disk delivery service ...")

	go s.diskMux.ListenAndServe()
	go s.serveRPC()
	go s.httpSrv.Serve(s.httpL)
}

// Stop cleans up the services and shut down the server.
func (s *Service) Stop() error {
	ctxLogger := mlog.GetMethodLogger(logger, "Service.Stop")
	ctxLogger.Info("stop disk delivery service ...")

	// diskMux closes the listener and all the registered layers.
	if err := s.diskMux.Close(); err != nil {
		return errors.Wrap(err, "close disk mux failed")
	}

	return s.httpSrv.Close()
}

// Addr returns the bound address of the service.
func (s *Service) Addr() net.Addr {
	return s.diskMux.Address()
}

func (s *Service) serveRPC() {
	ctxLogger := mlog.GetMethodLogger(logger, "Service.serveRPC")

	for {
		conn, err := s.rpcL.Accept()
		if err != nil {
			ctxLogger.Error(errors.Wrap(err, "accept connection from rpc layer failed"))
			return
		}
		rpcConnections.Inc()
		go func() {
			start := time.Now()
			s.rpcSrv.ServeConn(conn)
			rpcConnDuration.Observe(time.Since(start).Seconds())
		}()
	}
}
