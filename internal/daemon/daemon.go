//go:build unix

package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gurisko/shipyard/internal/build"
	"github.com/gurisko/shipyard/internal/history"
	"github.com/gurisko/shipyard/internal/limits"
	"github.com/gurisko/shipyard/internal/logx"
	"github.com/gurisko/shipyard/internal/manifest"
	"github.com/gurisko/shipyard/internal/paths"
	"github.com/gurisko/shipyard/internal/platform"
	"github.com/gurisko/shipyard/internal/registry"
	"github.com/gurisko/shipyard/internal/runner"
	"github.com/gurisko/shipyard/internal/toolchain"
)

// ensureParentDir creates the owner-only directory holding the socket or
// pidfile.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	_ = os.Chmod(dir, 0o700)
	return nil
}

// removeSocketIfExists clears a stale socket left by a previous daemon. Any
// other kind of file at path is an error.
func removeSocketIfExists(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if fi.Mode()&os.ModeSocket != 0 {
		return os.Remove(path)
	}

	return fmt.Errorf("refusing to remove non-socket path: %s", path)
}

// Lifecycle timeouts.
const (
	buildDrainTimeout = 10 * time.Second
	stopTimeout       = 20 * time.Second
)

type Daemon struct {
	socketPath string
	pidFile    string
	listener   net.Listener
	server     *http.Server
	registry   *registry.Registry
	httpClient *http.Client

	historyPath  string
	history      *history.Store
	builder      *build.Orchestrator
	policy       manifest.Policy
	templatesDir string
	host         platform.Platform

	// Projects with a build in flight, by canonical path. closing refuses
	// new builds once shutdown has begun; inflight lets it wait for the rest.
	mu       sync.Mutex
	building map[string]bool
	closing  bool
	inflight sync.WaitGroup

	startTime time.Time
}

type Config struct {
	SocketPath   string
	PIDFile      string
	RegistryPath string
	HistoryPath  string
	TemplatesDir string

	Tools  toolchain.Tools
	Policy manifest.Policy

	// Runner defaults to runner.New().
	Runner runner.Runner
}

func DefaultConfig() *Config {
	return &Config{
		SocketPath:   paths.DefaultSocketPath(),
		PIDFile:      paths.DefaultPIDPath(),
		RegistryPath: paths.DefaultRegistryPath(),
		HistoryPath:  paths.DefaultHistoryPath(),
		TemplatesDir: paths.DefaultTemplatesDir(),
		Tools:        toolchain.DefaultTools(),
		Policy:       manifest.DefaultPolicy,
	}
}

// New prepares a daemon. The history database is opened by Start, so a
// Daemon used only for Stop or GetStatus never touches it.
func New(cfg *Config) (*Daemon, error) {
	defaults := DefaultConfig()
	if cfg.SocketPath == "" {
		cfg.SocketPath = defaults.SocketPath
	}
	if cfg.PIDFile == "" {
		cfg.PIDFile = defaults.PIDFile
	}
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = defaults.RegistryPath
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = defaults.HistoryPath
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = defaults.TemplatesDir
	}
	if cfg.Tools == (toolchain.Tools{}) {
		cfg.Tools = defaults.Tools
	}
	if cfg.Policy == (manifest.Policy{}) {
		cfg.Policy = defaults.Policy
	}
	if cfg.Runner == nil {
		cfg.Runner = runner.New()
	}

	reg, err := registry.New(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry: %w", err)
	}

	// Status and Stop talk to an already running daemon over its socket.
	tr := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var nd net.Dialer
			return nd.DialContext(ctx, "unix", cfg.SocketPath)
		},
	}

	return &Daemon{
		socketPath:   cfg.SocketPath,
		pidFile:      cfg.PIDFile,
		registry:     reg,
		httpClient:   &http.Client{Transport: tr, Timeout: 2 * time.Second},
		historyPath:  cfg.HistoryPath,
		builder:      build.New(toolchain.New(cfg.Runner, cfg.Tools), cfg.Policy),
		policy:       cfg.Policy,
		templatesDir: cfg.TemplatesDir,
		host:         platform.Host(),
		building:     make(map[string]bool),
		startTime:    time.Now().UTC(),
	}, nil
}

func (d *Daemon) Start() error {
	if d.IsRunning() {
		pid, _ := d.readPIDFile()
		return fmt.Errorf("daemon already running (PID: %d)", pid)
	}

	return d.startForeground()
}

func (d *Daemon) startForeground() error {
	if err := ensureParentDir(d.socketPath); err != nil {
		return fmt.Errorf("failed to prepare socket directory: %w", err)
	}
	if err := removeSocketIfExists(d.socketPath); err != nil {
		return err
	}

	store, err := history.Open(d.historyPath)
	if err != nil {
		return fmt.Errorf("failed to open build history: %w", err)
	}
	d.history = store
	d.builder.Recorder = store

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create socket: %w", err)
	}
	d.listener = listener

	if err := os.Chmod(d.socketPath, 0600); err != nil {
		listener.Close()
		store.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	if err := d.writePIDFile(); err != nil {
		listener.Close()
		store.Close()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	mux := http.NewServeMux()
	d.setupRoutes(mux)

	// Request contexts derive from ctx; canceling it kills running packagers.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build streams lift WriteTimeout for themselves; see handleBuild.
	d.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("shipyard daemon started (PID: %d)\n", os.Getpid())
		fmt.Printf("Socket: %s\n", d.socketPath)
		serverErr <- d.server.Serve(listener)
	}()

	select {
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %v, shutting down...\n", sig)
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			logx.Errorf("daemon: server error: %v", err)
		}
	}

	cancel()
	d.shutdown()
	return nil
}

func (d *Daemon) Stop() error {
	pid, err := d.readPIDFile()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("daemon not running")
		}
		return fmt.Errorf("failed reading pidfile: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	// The daemon first stops its running builds, so allow for that.
	deadline := time.Now().Add(stopTimeout)
	for time.Now().Before(deadline) {
		if !d.IsRunning() {
			fmt.Println("shipyard daemon stopped")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop within %v", stopTimeout)
}

func (d *Daemon) GetStatus() (*StatusInfo, error) {
	info := &StatusInfo{
		SocketPath: d.socketPath,
	}

	pid, err := d.readPIDFile()
	if err != nil {
		return info, nil
	}
	info.PID = pid
	if !isProcessAlive(pid) {
		return info, nil // stale pidfile
	}

	health, err := d.getHealth()
	if err != nil {
		info.ErrorMessage = err.Error()
		return info, nil
	}
	info.Running = true
	info.Uptime = time.Duration(health.Uptime * float64(time.Second))
	return info, nil
}

func (d *Daemon) IsRunning() bool {
	pid, err := d.readPIDFile()
	if err != nil {
		return false
	}

	if !isProcessAlive(pid) {
		return false
	}
	// A recycled PID does not answer on our socket.
	_, err = d.getHealth()
	return err == nil
}

// shutdown stops serving, lets canceled builds record their outcome and then
// releases the socket, pidfile and history database.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	d.closing = true
	d.mu.Unlock()

	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.server.Shutdown(ctx); err != nil {
			logx.Warnf("daemon: server shutdown error: %v", err)
		}
	}
	if d.httpClient != nil {
		d.httpClient.CloseIdleConnections()
	}
	if d.listener != nil {
		d.listener.Close()
	}

	if d.history != nil {
		if d.waitBuilds(buildDrainTimeout) {
			if err := d.history.Close(); err != nil {
				logx.Warnf("daemon: failed to close history: %v", err)
			}
		} else {
			logx.Warnf("daemon: builds still running after %v, leaving history open", buildDrainTimeout)
		}
	}

	removeSocketIfExists(d.socketPath)
	os.Remove(d.pidFile)
}

// waitBuilds reports whether every in-flight build finished within timeout.
func (d *Daemon) waitBuilds(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (d *Daemon) writePIDFile() error {
	pid := os.Getpid()

	if err := ensureParentDir(d.pidFile); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	// O_EXCL makes two daemons racing for the pidfile see each other.
	for {
		f, err := os.OpenFile(d.pidFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			defer f.Close()
			_, err = f.WriteString(strconv.Itoa(pid))
			return err
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create PID file: %w", err)
		}
		if oldPID, err2 := d.readPIDFile(); err2 == nil && isProcessAlive(oldPID) {
			return fmt.Errorf("daemon already running (PID: %d)", oldPID)
		}
		if err := os.Remove(d.pidFile); err != nil {
			return fmt.Errorf("stale pidfile exists and cannot remove: %w", err)
		}
	}
}

// isProcessAlive probes pid with signal 0.
func isProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

func (d *Daemon) readPIDFile() (int, error) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(string(data)))
}

type HealthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

type StatusInfo struct {
	Running      bool
	PID          int
	SocketPath   string
	Uptime       time.Duration
	ErrorMessage string // set when the process is alive but the socket does not answer
}

func (d *Daemon) getHealth() (*HealthResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health returned HTTP %d", resp.StatusCode)
	}

	lr := io.LimitReader(resp.Body, limits.JSON)

	var health HealthResponse
	if err := json.NewDecoder(lr).Decode(&health); err != nil {
		return nil, err
	}

	return &health, nil
}
