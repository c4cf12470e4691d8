package diskd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chanyoung/ecdisk/app/diskd/delivery"
	"github.com/chanyoung/ecdisk/app/diskd/usecase/diskapi"
	"github.com/chanyoung/ecdisk/pkg/util/config"
	"github.com/chanyoung/ecdisk/pkg/util/mlog"
)

var logger *logrus.Entry

// Bootstrap build up the disk server daemon.
func Bootstrap(cfg config.Diskd) error {
	// Setup logger.
	if err := mlog.Init(cfg.LogLocation); err != nil {
		return errors.Wrap(err, "init log failed")
	}
	logger = mlog.GetPackageLogger("app/diskd")

	ctxLogger := mlog.GetFunctionLogger(logger, "Bootstrap")
	ctxLogger.Info("start bootstrap diskd ...")

	// Generates disk server ID.
	cfg.ID = uuid.NewString()

	// Setup disk serving handlers.
	handlers, err := diskapi.NewHandlers(&cfg)
	if err != nil {
		return errors.Wrap(err, "failed to setup disk handlers")
	}

	// Setup delivery service.
	delivery, err := delivery.SetupDeliveryService(&cfg, handlers)
	if err != nil {
		return errors.Wrap(err, "failed to setup delivery")
	}

	ctxLogger.Info("bootstrap diskd succeeded")

	// Make channel for Ctrl-C or other terminate signal is received.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	<-sigc
	ctxLogger.Info("received stop signal from OS")
	delivery.Stop()
	return handlers.Close()
}
