package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/go-socks/socks"
	"github.com/jessevdk/go-flags"
	"github.com/marabunet/marabud/infrastructure/logger"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/jsonwire"
	"github.com/marabunet/marabud/util/network"
	"github.com/marabunet/marabud/version"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename        = "marabud.conf"
	defaultLogDirname            = "logs"
	defaultLogFilename           = "marabud.log"
	defaultErrLogFilename        = "marabud_err.log"
	defaultLogLevel              = "info"
	defaultListen                = "127.0.0.1:18018"
	defaultTargetOutboundPeers   = 8
	defaultMaxInboundPeers       = 117
	defaultMaxFrameSize          = jsonwire.DefaultMaxFrameSize
	minMaxFrameSize              = 1024
	defaultHandshakeTimeout      = 20 * time.Second
	defaultPartialMessageTimeout = 10 * time.Second
	defaultIdleTimeout           = 10 * time.Minute
	defaultWriteTimeout          = 30 * time.Second
	defaultMaxProtocolErrors     = 16

	// DefaultPort is the port peers listen on unless they say otherwise.
	DefaultPort = "18018"
)

var (
	// DefaultAppDir is the default home directory for marabud.
	DefaultAppDir = appDataDir("marabud")

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for marabud.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion           bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile            string        `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir                string        `long:"logdir" description:"Directory to log output."`
	Listen                string        `long:"listen" description:"Interface/port to listen for connections (default 127.0.0.1:18018)"`
	NoListen              bool          `long:"nolisten" description:"Disable listening for incoming connections"`
	AddPeers              []string      `short:"a" long:"addpeer" description:"Add a peer to connect with at startup"`
	ExternalIPs           []string      `long:"externalip" description:"Add an address to the list of addresses we advertise to peers"`
	TargetOutboundPeers   int           `long:"outpeers" description:"Target number of outbound peers"`
	MaxInboundPeers       int           `long:"maxinpeers" description:"Max number of inbound peers"`
	MaxFrameSize          int           `long:"maxframesize" description:"Max size in bytes of a single message"`
	HandshakeTimeout      time.Duration `long:"handshaketimeout" description:"How long a new peer has to send its hello. Valid time units are {s, m, h}"`
	PartialMessageTimeout time.Duration `long:"partialmessagetimeout" description:"How long a peer has to complete a partially received message"`
	IdleTimeout           time.Duration `long:"idletimeout" description:"Disconnect peers that send no message for this long"`
	WriteTimeout          time.Duration `long:"writetimeout" description:"Disconnect peers that don't accept a write for this long"`
	MaxProtocolErrors     int           `long:"maxprotocolerrors" description:"Disconnect peers after this many malformed or invalid messages (0 to never disconnect for them)"`
	Proxy                 string        `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser             string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass             string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	DebugLevel            string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	AgentComment          string        `long:"agent" description:"Comment to add to the agent announced in hello messages"`
	Profile               string        `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
}

// Config defines the configuration options for marabud.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags
	ServiceOptions *ServiceOptions
	Dial           func(network, address string, timeout time.Duration) (net.Conn, error)
}

// Commands accepted by --service.
const (
	ServiceCommandInstall = "install"
	ServiceCommandRemove  = "remove"
	ServiceCommandStart   = "start"
	ServiceCommandStop    = "stop"
)

// ServiceOptions defines the configuration options for the daemon as a service on
// Windows.
type ServiceOptions struct {
	ServiceCommand string `short:"s" long:"service" description:"Service command {install, remove, start, stop}"`
}

// LogFile returns the path of the main log file.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the error log file.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// Agent returns the agent string announced in hello messages.
func (cfg *Config) Agent() string {
	return version.Agent(cfg.AgentComment)
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:            defaultConfigFile,
		LogDir:                defaultLogDir,
		Listen:                defaultListen,
		TargetOutboundPeers:   defaultTargetOutboundPeers,
		MaxInboundPeers:       defaultMaxInboundPeers,
		MaxFrameSize:          defaultMaxFrameSize,
		HandshakeTimeout:      defaultHandshakeTimeout,
		PartialMessageTimeout: defaultPartialMessageTimeout,
		IdleTimeout:           defaultIdleTimeout,
		WriteTimeout:          defaultWriteTimeout,
		MaxProtocolErrors:     defaultMaxProtocolErrors,
		DebugLevel:            defaultLogLevel,
	}
}

// DefaultConfig returns the default marabud configuration, dialing directly.
func DefaultConfig() *Config {
	return &Config{
		Flags:          defaultFlags(),
		ServiceOptions: &ServiceOptions{},
		Dial:           net.DialTimeout,
	}
}

// appDataDir returns the per-user directory marabud keeps its files in.
func appDataDir(appName string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "." + appName
	}
	return filepath.Join(homeDir, "."+appName)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
//
// Command line options always take precedence. A missing config file is not
// an error.
func LoadConfig() (*Config, error) {
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	if cfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	err = os.MkdirAll(cfg.LogDir, 0700)
	if err != nil {
		err = errors.Wrapf(err, "failed to create log directory %s", cfg.LogDir)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}
	return cfg, nil
}

func loadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file was specified. Errors other than help are caught by the final
	// parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return nil, err
		}
	}

	// Service options which are only added on Windows.
	serviceOpts := &ServiceOptions{}
	parser := flags.NewParser(cfgFlags, flags.Default)
	if runtime.GOOS == "windows" {
		_, err := parser.AddGroup("Service Options", "Service Options", serviceOpts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if preCfg.ConfigFile != "" {
		err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			if _, ok := err.(*os.PathError); !ok {
				return nil, errors.Wrapf(err, "error parsing config file %s", preCfg.ConfigFile)
			}
		}
	}

	_, err = parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags, ServiceOptions: serviceOpts}
	err = cfg.validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	funcName := "loadConfig"

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	if cfg.DebugLevel != "show" {
		err := logger.ParseAndSetLogLevels(cfg.DebugLevel)
		if err != nil {
			return errors.Wrap(err, funcName)
		}
	}

	if !cfg.NoListen {
		err := network.ValidatePeerAddress(cfg.Listen)
		if err != nil {
			host, port, splitErr := net.SplitHostPort(cfg.Listen)
			if splitErr != nil || host != "" || port == "" {
				return errors.Wrapf(err, "%s: invalid --listen", funcName)
			}
		}
	}

	var err error
	cfg.AddPeers, err = network.NormalizeAddresses(cfg.AddPeers, DefaultPort)
	if err != nil {
		return errors.Wrapf(err, "%s: invalid --addpeer", funcName)
	}
	cfg.ExternalIPs, err = network.NormalizeAddresses(cfg.ExternalIPs, DefaultPort)
	if err != nil {
		return errors.Wrapf(err, "%s: invalid --externalip", funcName)
	}

	if cfg.TargetOutboundPeers < 0 {
		return errors.Errorf("%s: --outpeers must not be negative", funcName)
	}
	if cfg.MaxInboundPeers < 0 {
		return errors.Errorf("%s: --maxinpeers must not be negative", funcName)
	}
	if cfg.MaxFrameSize < minMaxFrameSize {
		return errors.Errorf("%s: --maxframesize must be at least %d", funcName, minMaxFrameSize)
	}
	if cfg.MaxProtocolErrors < 0 {
		return errors.Errorf("%s: --maxprotocolerrors must not be negative", funcName)
	}
	timeouts := map[string]time.Duration{
		"handshaketimeout":      cfg.HandshakeTimeout,
		"partialmessagetimeout": cfg.PartialMessageTimeout,
		"idletimeout":           cfg.IdleTimeout,
		"writetimeout":          cfg.WriteTimeout,
	}
	for name, timeout := range timeouts {
		if timeout < time.Second {
			return errors.Errorf("%s: --%s must be at least 1s, got %s", funcName, name, timeout)
		}
	}

	if cfg.ServiceOptions != nil {
		switch cfg.ServiceOptions.ServiceCommand {
		case "", ServiceCommandInstall, ServiceCommandRemove, ServiceCommandStart, ServiceCommandStop:
		default:
			return errors.Errorf("%s: invalid service command [%s]", funcName, cfg.ServiceOptions.ServiceCommand)
		}
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.Errorf("%s: the profile port must be between 1024 and 65535", funcName)
		}
	}

	// The default is to dial directly. When a proxy is specified, dials go
	// through SOCKS5.
	cfg.Dial = net.DialTimeout
	if cfg.Proxy != "" {
		_, _, err := net.SplitHostPort(cfg.Proxy)
		if err != nil {
			return errors.Wrapf(err, "%s: proxy address '%s' is invalid", funcName, cfg.Proxy)
		}
		proxy := &socks.Proxy{
			Addr:     cfg.Proxy,
			Username: cfg.ProxyUser,
			Password: cfg.ProxyPass,
		}
		cfg.Dial = proxy.DialTimeout
	}
	return nil
}
