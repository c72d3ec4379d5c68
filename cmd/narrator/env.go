package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/factory"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/metrics"
)

// PasswordEnv supplies the secrets password without a prompt.
const PasswordEnv = "NARRATOR_PASSWORD"

// env is the shared state a command builds from the config file.
type env struct {
	cfg      *config.Config
	secrets  config.Secrets
	recorder metrics.Recorder
	registry *metrics.PrometheusRecorder
	factory  *factory.Factory
}

// projectDir is where the secrets directory lives: next to the config file.
func projectDir() string {
	return filepath.Dir(configPath)
}

// loadConfig reads the config file. Only the default path may be missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, configPath == config.DefaultConfigFile)
	if err != nil {
		return nil, err //nolint:wrapcheck // config errors name the file
	}
	return cfg, nil
}

// newEnv validates cfg, unlocks secrets and builds the client factory.
// cfg already carries defaults from loadConfig; zero values set by flags
// after that are kept.
func newEnv(cfg *config.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // validation errors list the fields
	}

	secrets, err := loadSecrets(projectDir())
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, secrets: secrets, recorder: metrics.Nop()}
	if cfg.Metrics.Enabled {
		e.registry = metrics.NewPrometheusRecorder()
		e.recorder = e.registry
	}
	e.factory = factory.New(cfg, secrets, e.recorder, logx.NewLogger("llm"))
	return e, nil
}

// writeMetrics dumps the registry when a textfile path is configured.
func (e *env) writeMetrics() {
	if e.registry == nil || e.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(e.registry.Registry(), e.cfg.Metrics.Textfile); err != nil {
		logx.Warnf("failed to write metrics: %v", err)
	}
}

// loadSecrets decrypts the secrets file when one exists. Without a file,
// secrets resolve from the environment alone.
func loadSecrets(dir string) (config.Secrets, error) {
	if !config.SecretsFileExists(dir) {
		return config.Secrets{}, nil
	}
	password, err := readPassword("Secrets password: ", false)
	if err != nil {
		return nil, err
	}
	secrets, err := config.LoadSecrets(dir, password)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock secrets: %w", err)
	}
	return secrets, nil
}

// readPassword returns $NARRATOR_PASSWORD or prompts on the terminal.
func readPassword(prompt string, confirm bool) (string, error) {
	if password := os.Getenv(PasswordEnv); password != "" {
		return password, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) { //nolint:unconvert // Stdin is int on unix only
		return "", fmt.Errorf("no terminal for password prompt; set %s", PasswordEnv)
	}

	fmt.Fprint(os.Stderr, prompt)
	first, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // Stdin is int on unix only
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // Stdin is int on unix only
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

// readSecretValue reads a secret from the terminal without echo.
func readSecretValue(name string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) { //nolint:unconvert // Stdin is int on unix only
		return "", fmt.Errorf("no terminal to read %s; pass it as an argument", name)
	}
	fmt.Fprintf(os.Stderr, "%s: ", name)
	value, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // Stdin is int on unix only
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return strings.TrimSpace(string(value)), nil
}
