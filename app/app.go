package app

import (
	"fmt"
	"runtime"
	"time"

	"github.com/marabunet/marabud/infrastructure/config"
	"github.com/marabunet/marabud/infrastructure/logger"
	"github.com/marabunet/marabud/infrastructure/os/execenv"
	"github.com/marabunet/marabud/infrastructure/os/signal"
	"github.com/marabunet/marabud/infrastructure/os/winservice"
	"github.com/marabunet/marabud/util/panics"
	"github.com/marabunet/marabud/util/profiling"
	"github.com/marabunet/marabud/version"
)

var serviceDescription = &winservice.ServiceDescription{
	Name:        "marabudsvc",
	DisplayName: "Marabud Service",
	Description: "Relays transactions and blocks between peers of the Marabu network.",
}

type marabudApp struct {
	cfg *config.Config
}

// StartApp starts the marabud app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line.
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &marabudApp{cfg: cfg}

	// Call serviceMain on Windows to handle running as a service. When
	// the return isService flag is true, exit now since we ran as a
	// service. Otherwise, just fall through to normal operation.
	if runtime.GOOS == "windows" {
		isService, err := winservice.WinServiceMain(app.main, serviceDescription, cfg)
		if err != nil {
			fmt.Println(err)
			return err
		}
		if isService {
			return nil
		}
	}

	return app.main(nil)
}

func (app *marabudApp) main(startedChan chan<- struct{}) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// the Windows service control manager.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	componentManager, err := NewComponentManager(app.cfg)
	if err != nil {
		log.Errorf("Unable to start marabud: %+v", err)
		return err
	}

	defer func() {
		log.Infof("Gracefully shutting down marabud...")

		shutdownDone := make(chan struct{})
		spawn("marabudApp.main-shutdown", func() {
			componentManager.Stop()
			shutdownDone <- struct{}{}
		})

		const shutdownTimeout = 2 * time.Minute

		select {
		case <-shutdownDone:
		case <-time.After(shutdownTimeout):
			log.Criticalf("Graceful shutdown timed out %s. Terminating...", shutdownTimeout)
		}
		log.Infof("Marabud shutdown complete")
	}()

	componentManager.Start()

	if startedChan != nil {
		startedChan <- struct{}{}
	}

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through the service control manager.
	<-interrupt
	return nil
}
