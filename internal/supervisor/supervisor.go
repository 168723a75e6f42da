// Package supervisor owns the lifecycle of the chained decoder process
// pair and drives each output line through the message pipeline.
package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mwiklund/pagerd/internal/filter"
	"github.com/mwiklund/pagerd/internal/normalize"
	"github.com/mwiklund/pagerd/internal/parse"
	"github.com/mwiklund/pagerd/internal/router"
)

// State is the supervisor lifecycle state. There is no failed state: a
// spawn failure tears down whatever was created and falls back to Stopped.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DefaultGracePeriod is how long Stop waits after SIGTERM before SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// RestartPolicy controls what happens when the process pair dies without
// an operator stop. Disabled by default: decoding then stops until the
// next operator-triggered start. MaxRestarts 0 means unlimited.
type RestartPolicy struct {
	Enabled     bool
	Wait        time.Duration
	MaxRestarts int
}

// Supervisor owns the decoder process pair exclusively. At most one pair
// and one reader loop exist at a time; starting always fully stops the
// previous pair first.
type Supervisor struct {
	router      *router.Router
	filter      *filter.AddressWordFilter
	commands    CommandFactory
	restart     RestartPolicy
	gracePeriod time.Duration
	log         *slog.Logger

	addresses atomic.Pointer[filter.AddressSet]

	mu            sync.Mutex
	state         State
	upstream      *exec.Cmd
	downstream    *exec.Cmd
	frequency     string
	stopRequested bool
	readerDone    chan struct{}
	restarts      int
}

// New creates a Supervisor. commands may be nil to use the production
// rtl_fm | multimon-ng pair; a nil logger selects slog.Default.
func New(r *router.Router, f *filter.AddressWordFilter, commands CommandFactory, restart RestartPolicy, logger *slog.Logger) *Supervisor {
	if commands == nil {
		commands = DefaultCommands
	}
	if restart.Wait <= 0 {
		restart.Wait = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{
		router:      r,
		filter:      f,
		commands:    commands,
		restart:     restart,
		gracePeriod: DefaultGracePeriod,
		log:         logger,
	}
	empty := filter.AddressSet{}
	s.addresses.Store(&empty)
	return s
}

// Start spawns the process pair for the given frequency, stopping any
// previous pair first, and launches the reader loop. On spawn failure any
// partially created process is torn down and the supervisor is Stopped.
func (s *Supervisor) Start(frequency string) error {
	return s.start(frequency, false)
}

func (s *Supervisor) start(frequency string, isRestart bool) error {
	s.stop(isRestart)

	s.mu.Lock()
	defer s.mu.Unlock()

	if isRestart && s.stopRequested {
		// An operator stop won the race during the restart wait.
		s.setStateLocked(StateStopped)
		return fmt.Errorf("decoder stopped during restart")
	}

	s.setStateLocked(StateStarting)
	s.stopRequested = false
	s.log.Info("starting decoder", "frequency", frequency)

	upstream, downstream := s.commands(frequency)

	pipe, err := upstream.StdoutPipe()
	if err != nil {
		s.setStateLocked(StateStopped)
		return fmt.Errorf("creating upstream pipe: %w", err)
	}
	downstream.Stdin = pipe

	out, err := downstream.StdoutPipe()
	if err != nil {
		s.setStateLocked(StateStopped)
		return fmt.Errorf("creating downstream pipe: %w", err)
	}

	if err := upstream.Start(); err != nil {
		s.setStateLocked(StateStopped)
		return fmt.Errorf("starting upstream process: %w", err)
	}
	if err := downstream.Start(); err != nil {
		s.terminate("upstream", upstream, s.gracePeriod)
		s.setStateLocked(StateStopped)
		return fmt.Errorf("starting downstream process: %w", err)
	}

	s.upstream = upstream
	s.downstream = downstream
	s.frequency = frequency
	if !isRestart {
		s.restarts = 0
	}
	s.readerDone = make(chan struct{})
	s.setStateLocked(StateRunning)

	go s.readLoop(out, s.readerDone)

	s.log.Info("decoder started", "frequency", frequency)
	return nil
}

// Stop terminates both processes with a bounded grace period. Idempotent;
// tolerates already-exited processes; always ends Stopped with both
// process handles cleared.
func (s *Supervisor) Stop() {
	s.stop(false)
}

func (s *Supervisor) stop(isRestart bool) {
	s.mu.Lock()
	if !isRestart {
		s.stopRequested = true
	}
	if s.upstream == nil && s.downstream == nil {
		s.setStateLocked(StateStopped)
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateStopping)
	upstream, downstream := s.upstream, s.downstream
	s.upstream, s.downstream = nil, nil
	done := s.readerDone
	s.readerDone = nil
	s.mu.Unlock()

	// Downstream first so the upstream never blocks on a full pipe while
	// we wait for it.
	s.terminate("downstream", downstream, s.gracePeriod)
	s.terminate("upstream", upstream, s.gracePeriod)

	if done != nil {
		select {
		case <-done:
		case <-time.After(s.gracePeriod):
			s.log.Warn("reader loop still draining after process stop")
		}
	}

	s.mu.Lock()
	s.setStateLocked(StateStopped)
	s.mu.Unlock()
	s.log.Info("decoder stopped")
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frequency returns the frequency of the most recent start.
func (s *Supervisor) Frequency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

// UpdateFilterAddresses swaps the set of addresses routed to the filtered
// log. Takes effect for the next line processed; no restart.
func (s *Supervisor) UpdateFilterAddresses(set filter.AddressSet) {
	s.addresses.Store(&set)
	s.log.Info("filter addresses updated", "count", len(set))
}

// UpdateBlacklist swaps the active blacklist. Takes effect for the next
// line processed; no restart.
func (s *Supervisor) UpdateBlacklist(bl filter.Blacklist) {
	s.filter.Update(bl)
}

// FilterAddresses returns the active filtered-address snapshot.
func (s *Supervisor) FilterAddresses() filter.AddressSet {
	return *s.addresses.Load()
}

// readLoop consumes the downstream process output line by line until the
// stream closes. A panic anywhere in line processing ends the loop, never
// the host process.
func (s *Supervisor) readLoop(out io.Reader, done chan struct{}) {
	defer s.onReaderExit()
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reader loop panic", "panic", r)
		}
	}()

	s.log.Info("reader loop started")

	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		s.processLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.log.Warn("decoder output read error", "error", err)
	}

	s.log.Info("reader loop finished")
}

// processLine drives one raw line through normalize -> address extraction
// -> blacklist -> router. Lines without an address cannot be routed or
// filtered and are discarded.
func (s *Supervisor) processLine(line string) {
	msg, ok := normalize.Normalize(line)
	if !ok {
		return
	}

	address, ok := parse.Address(msg)
	if !ok {
		return
	}

	if blocked, reason := s.filter.ShouldBlock(address, msg); blocked {
		s.log.Info("message blocked", "reason", reason)
		return
	}

	s.router.Handle(context.Background(), msg, address, s.FilterAddresses())
}

// onReaderExit applies the restart policy after an unexpected reader-loop
// exit. An operator stop, a disabled policy, or an exhausted restart
// budget all leave the decoder stopped until the next Start.
func (s *Supervisor) onReaderExit() {
	s.mu.Lock()
	requested := s.stopRequested
	policy := s.restart
	restarts := s.restarts
	frequency := s.frequency
	s.mu.Unlock()

	if requested || !policy.Enabled {
		return
	}
	if policy.MaxRestarts > 0 && restarts >= policy.MaxRestarts {
		s.log.Error("decoder exceeded max restarts, giving up", "max", policy.MaxRestarts)
		return
	}

	s.log.Warn("decoder exited unexpectedly, restarting",
		"wait", policy.Wait,
		"restart_count", restarts,
	)
	time.Sleep(policy.Wait)

	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		return
	}
	s.restarts = restarts + 1
	s.mu.Unlock()

	if err := s.start(frequency, true); err != nil {
		s.log.Error("decoder restart failed", "error", err)
	}
}

func (s *Supervisor) setStateLocked(state State) {
	if s.state != state {
		s.log.Debug("supervisor state change", "from", s.state, "to", state)
		s.state = state
	}
}

// terminate sends SIGTERM, waits up to grace, then SIGKILLs. Tolerates a
// process that already exited.
func (s *Supervisor) terminate(name string, cmd *exec.Cmd, grace time.Duration) {
	if cmd == nil || cmd.Process == nil {
		return
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already exited; just reap it.
		<-waitDone
		s.log.Debug("process already exited", "process", name)
		return
	}

	select {
	case <-waitDone:
		s.log.Info("process stopped", "process", name)
	case <-time.After(grace):
		_ = cmd.Process.Kill()
		<-waitDone
		s.log.Warn("process killed after grace period", "process", name)
	}
}
