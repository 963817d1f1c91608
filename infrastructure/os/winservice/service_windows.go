// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package winservice

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/winsvc/eventlog"
	"github.com/btcsuite/winsvc/mgr"
	"github.com/btcsuite/winsvc/svc"
	"github.com/marabunet/marabud/infrastructure/config"
	"github.com/marabunet/marabud/infrastructure/os/signal"
	"github.com/marabunet/marabud/version"
	"github.com/pkg/errors"
)

// Service houses the main service handler which handles all service
// updates and launching the application's main.
type Service struct {
	main        MainFunc
	description *ServiceDescription
	cfg         *config.Config
	eventLog    *eventlog.Log
}

func newService(main MainFunc, description *ServiceDescription, cfg *config.Config) *Service {
	return &Service{
		main:        main,
		description: description,
		cfg:         cfg,
	}
}

// Start starts the service and blocks until it's stopped
func (s *Service) Start() error {
	elog, err := eventlog.Open(s.description.Name)
	if err != nil {
		return err
	}
	s.eventLog = elog
	defer s.eventLog.Close()

	err = svc.Run(s.description.Name, s)
	if err != nil {
		s.eventLog.Error(1, fmt.Sprintf("Service start failed: %s", err))
		return err
	}

	return nil
}

// Execute is the main entry point the winsvc package calls when receiving
// information from the Windows service control manager. It launches the
// long-running main, handles service change requests, and notifies the
// service control manager of changes.
func (s *Service) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	// Service start is pending.
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown
	changes <- svc.Status{State: svc.StartPending}

	// Start main in a separate goroutine so the service can start
	// quickly. Shutdown (along with a potential error) is reported via
	// doneChan. startedChan is notified once main is started so this can
	// be properly logged
	doneChan := make(chan error)
	startedChan := make(chan struct{})
	spawn("Service.Execute-main", func() {
		err := s.main(startedChan)
		doneChan <- err
	})

	// Service is now started.
	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}
loop:
	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus

			case svc.Stop, svc.Shutdown:
				// Service stop is pending. Don't accept any
				// more commands while pending.
				changes <- svc.Status{State: svc.StopPending}

				// Signal the main function to exit.
				signal.ShutdownRequestChannel <- struct{}{}

			default:
				s.eventLog.Error(1, fmt.Sprintf("Unexpected control "+
					"request #%d.", c))
			}

		case <-startedChan:
			s.logServiceStart()

		case err := <-doneChan:
			if err != nil {
				s.eventLog.Error(1, err.Error())
			}
			break loop
		}
	}

	// Service is now stopped.
	changes <- svc.Status{State: svc.Stopped}
	return false, 0
}

// logServiceStart logs information about the application when the main
// server has been started to the Windows event log.
func (s *Service) logServiceStart() {
	var message string
	message += fmt.Sprintf("%s version %s\n", s.description.DisplayName, version.Version())
	message += fmt.Sprintf("Configuration file: %s\n", s.cfg.ConfigFile)
	message += fmt.Sprintf("Log directory: %s\n", s.cfg.LogDir)

	s.eventLog.Info(1, message)
}

// performServiceCommand attempts to run one of the supported service commands
// provided on the command line via the service command flag. An appropriate
// error is returned if an invalid command is specified.
func (s *Service) performServiceCommand() error {
	commands := map[string]func() error{
		config.ServiceCommandInstall: s.install,
		config.ServiceCommandRemove:  s.remove,
		config.ServiceCommandStart:   s.startService,
		config.ServiceCommandStop: func() error {
			return s.controlService(svc.Stop, svc.Stopped)
		},
	}
	command := s.cfg.ServiceOptions.ServiceCommand
	run, ok := commands[command]
	if !ok {
		return errors.Errorf("invalid service command [%s]", command)
	}
	return run()
}

// install attempts to install the service. Typically this should be done by
// the msi installer, but it is provided here since it can be useful for
// development.
func (s *Service) install() error {
	// os.Args[0] lacks the path and extension under cmd.exe.
	exePath, err := filepath.Abs(os.Args[0])
	if err != nil {
		return err
	}
	if filepath.Ext(exePath) == "" {
		exePath += ".exe"
	}

	serviceManager, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer serviceManager.Disconnect()

	// Ensure the service doesn't already exist.
	service, err := serviceManager.OpenService(s.description.Name)
	if err == nil {
		service.Close()
		return errors.Errorf("service %s already exists", s.description.Name)
	}

	service, err = serviceManager.CreateService(s.description.Name, exePath, mgr.Config{
		DisplayName: s.description.DisplayName,
		Description: s.description.Description,
	})
	if err != nil {
		return err
	}
	defer service.Close()

	// Register with the EventCreate.exe message file so free-form messages
	// can be logged without a message catalog.
	eventlog.Remove(s.description.Name)
	eventsSupported := uint32(eventlog.Error | eventlog.Warning | eventlog.Info)
	return eventlog.InstallAsEventCreate(s.description.Name, eventsSupported)
}

// withService connects to the service control manager, opens the installed
// service and calls f with it.
func (s *Service) withService(f func(service *mgr.Service) error) error {
	serviceManager, err := mgr.Connect()
	if err != nil {
		return errors.Wrap(err, "could not connect to the service control manager")
	}
	defer serviceManager.Disconnect()

	service, err := serviceManager.OpenService(s.description.Name)
	if err != nil {
		return errors.Wrapf(err, "could not access service %s", s.description.Name)
	}
	defer service.Close()

	return f(service)
}

// remove uninstalls the service. The eventlog entry is left in place since
// removing it would invalidate any existing event log messages.
func (s *Service) remove() error {
	return s.withService(func(service *mgr.Service) error {
		return service.Delete()
	})
}

func (s *Service) startService() error {
	return s.withService(func(service *mgr.Service) error {
		err := service.Start(os.Args)
		if err != nil {
			return errors.Wrap(err, "could not start service")
		}
		return nil
	})
}

const (
	serviceStateTimeout      = 10 * time.Second
	serviceStatePollInterval = 300 * time.Millisecond
)

// controlService sends c to the service and waits up to
// serviceStateTimeout for it to reach the state to.
func (s *Service) controlService(c svc.Cmd, to svc.State) error {
	return s.withService(func(service *mgr.Service) error {
		status, err := service.Control(c)
		if err != nil {
			return errors.Wrapf(err, "could not send control=%d", c)
		}

		deadline := time.Now().Add(serviceStateTimeout)
		for status.State != to {
			if time.Now().After(deadline) {
				return errors.Errorf("timeout waiting for service to go to state=%d", to)
			}
			time.Sleep(serviceStatePollInterval)
			status, err = service.Query()
			if err != nil {
				return errors.Wrap(err, "could not retrieve service status")
			}
		}
		return nil
	})
}
