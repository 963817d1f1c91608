package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func withTempDir(t *testing.T, testName string) (string, func()) {
	tmpDir, err := ioutil.TempDir("", "marabud")
	if err != nil {
		t.Fatalf("%s: failed creating a temporary directory: %v", testName, err)
	}
	return tmpDir, func() { os.RemoveAll(tmpDir) }
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir, teardown := withTempDir(t, "TestLoadConfigDefaults")
	defer teardown()

	cfg, err := loadConfig([]string{"-C", filepath.Join(tmpDir, "missing.conf")})
	if err != nil {
		t.Fatalf("TestLoadConfigDefaults: loadConfig: %+v", err)
	}
	if cfg.Listen != defaultListen {
		t.Fatalf("TestLoadConfigDefaults: expected listen %s, got %s", defaultListen, cfg.Listen)
	}
	if cfg.MaxFrameSize != 1024*1024 || cfg.MaxProtocolErrors != 16 {
		t.Fatalf("TestLoadConfigDefaults: unexpected limits %d/%d", cfg.MaxFrameSize, cfg.MaxProtocolErrors)
	}
	if cfg.HandshakeTimeout != 20*time.Second || cfg.PartialMessageTimeout != 10*time.Second ||
		cfg.IdleTimeout != 10*time.Minute || cfg.WriteTimeout != 30*time.Second {
		t.Fatalf("TestLoadConfigDefaults: unexpected timeouts %+v", cfg.Flags)
	}
	if cfg.Dial == nil {
		t.Fatalf("TestLoadConfigDefaults: Dial was not set")
	}
	if !strings.HasPrefix(cfg.Agent(), "marabud/") {
		t.Fatalf("TestLoadConfigDefaults: unexpected agent %q", cfg.Agent())
	}
}

func TestLoadConfigFileAndArgs(t *testing.T) {
	tmpDir, teardown := withTempDir(t, "TestLoadConfigFileAndArgs")
	defer teardown()

	configFile := filepath.Join(tmpDir, "marabud.conf")
	content := "[Application Options]\n" +
		"listen=127.0.0.1:19000\n" +
		"addpeer=10.0.0.2\n" +
		"idletimeout=5m\n"
	err := ioutil.WriteFile(configFile, []byte(content), 0600)
	if err != nil {
		t.Fatalf("TestLoadConfigFileAndArgs: failed writing config file: %v", err)
	}

	cfg, err := loadConfig([]string{
		"-C", configFile,
		"--listen=127.0.0.1:19001",
		"--externalip=node.example.org",
		"--maxprotocolerrors=0",
		"--logdir", tmpDir,
	})
	if err != nil {
		t.Fatalf("TestLoadConfigFileAndArgs: loadConfig: %+v", err)
	}
	if cfg.Listen != "127.0.0.1:19001" {
		t.Fatalf("TestLoadConfigFileAndArgs: command line should override the config file, got %s", cfg.Listen)
	}
	if !reflect.DeepEqual(cfg.AddPeers, []string{"10.0.0.2:18018"}) {
		t.Fatalf("TestLoadConfigFileAndArgs: unexpected addpeers %v", cfg.AddPeers)
	}
	if !reflect.DeepEqual(cfg.ExternalIPs, []string{"node.example.org:18018"}) {
		t.Fatalf("TestLoadConfigFileAndArgs: unexpected external ips %v", cfg.ExternalIPs)
	}
	if cfg.IdleTimeout != 5*time.Minute {
		t.Fatalf("TestLoadConfigFileAndArgs: expected idle timeout 5m, got %s", cfg.IdleTimeout)
	}
	if cfg.MaxProtocolErrors != 0 {
		t.Fatalf("TestLoadConfigFileAndArgs: expected no error budget, got %d", cfg.MaxProtocolErrors)
	}
	if cfg.LogFile() != filepath.Join(tmpDir, "marabud.log") || cfg.ErrLogFile() != filepath.Join(tmpDir, "marabud_err.log") {
		t.Fatalf("TestLoadConfigFileAndArgs: unexpected log files %s %s", cfg.LogFile(), cfg.ErrLogFile())
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tmpDir, teardown := withTempDir(t, "TestLoadConfigValidation")
	defer teardown()
	missingConfig := filepath.Join(tmpDir, "missing.conf")

	tests := [][]string{
		{"--maxframesize=10"},
		{"--outpeers=-1"},
		{"--maxinpeers=-1"},
		{"--maxprotocolerrors=-3"},
		{"--handshaketimeout=10ms"},
		{"--addpeer=bad address:1"},
		{"--externalip=[::1]:99999"},
		{"--listen=nonsense"},
		{"--proxy=nonsense"},
		{"--debuglevel=loud"},
		{"--profile=80"},
		{"--profile=http"},
	}
	for _, args := range tests {
		_, err := loadConfig(append([]string{"-C", missingConfig}, args...))
		if err == nil {
			t.Fatalf("TestLoadConfigValidation: expected an error for %v", args)
		}
	}

	cfg, err := loadConfig([]string{"-C", missingConfig, "--nolisten", "--listen=nonsense"})
	if err != nil {
		t.Fatalf("TestLoadConfigValidation: --listen should be ignored with --nolisten: %+v", err)
	}
	if !cfg.NoListen {
		t.Fatalf("TestLoadConfigValidation: expected NoListen")
	}

	_, err = loadConfig([]string{"-C", missingConfig, "--proxy=127.0.0.1:9050", "--proxyuser=u", "--proxypass=p"})
	if err != nil {
		t.Fatalf("TestLoadConfigValidation: proxy config: %+v", err)
	}

	cfg, err = loadConfig([]string{"-C", missingConfig, "--profile=6061"})
	if err != nil {
		t.Fatalf("TestLoadConfigValidation: profile config: %+v", err)
	}
	if cfg.ServiceOptions == nil {
		t.Fatalf("TestLoadConfigValidation: ServiceOptions was not set")
	}

	cfg = DefaultConfig()
	cfg.ServiceOptions.ServiceCommand = "restart"
	if err := cfg.validate(); err == nil {
		t.Fatalf("TestLoadConfigValidation: expected an error for an unknown service command")
	}
	cfg.ServiceOptions.ServiceCommand = ServiceCommandStop
	if err := cfg.validate(); err != nil {
		t.Fatalf("TestLoadConfigValidation: service command stop: %+v", err)
	}
}
