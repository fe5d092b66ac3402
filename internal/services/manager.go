package services

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/coinbase/chaingov/internal/utils/log"
)

type (
	// SystemManager owns the root context of a process and tears it down on SIGINT/SIGTERM.
	SystemManager interface {
		Context() context.Context
		Logger() *zap.Logger
		ServiceContext() context.Context
		State() ServiceState
		AddShutdownHook(ShutdownHook)
		Shutdown()
	}

	// ManagerOption allows the manager to be customized via options.
	ManagerOption func(*managerOpts)

	Params struct {
		fx.In
		SystemManager SystemManager `optional:"true"`
	}

	systemManager struct {
		mu    sync.RWMutex
		state ServiceState

		log *zap.Logger

		ctx              context.Context
		serviceCtx       context.Context
		serviceCtxCancel context.CancelFunc
		shutdownHooks    []ShutdownHook
		shutdownOnce     sync.Once
	}

	managerOpts struct {
		logger        *zap.Logger
		rootContext   context.Context
		handleSignals bool
	}

	ServiceState int

	ShutdownHook func()
)

const (
	// termDelay specifies the timeout after which the process is forced to terminate.
	termDelay = time.Second * 20

	Starting ServiceState = iota + 1
	Running
	Stopping
	Terminated
)

func NewManager(opts ...ManagerOption) SystemManager {
	mOpts := managerOpts{
		rootContext:   context.Background(),
		handleSignals: true,
	}
	for _, o := range opts {
		o(&mOpts)
	}
	if mOpts.logger == nil {
		mOpts.logger = log.New()
	}

	manager := &systemManager{
		log:   mOpts.logger,
		state: Running,
	}

	manager.ctx = ctxzap.ToContext(mOpts.rootContext, manager.log)
	manager.serviceCtx, manager.serviceCtxCancel = context.WithCancel(manager.ctx)
	if mOpts.handleSignals {
		GracefulShutdown(manager.ctx, manager.Shutdown)
	}

	return manager
}

// WithLogger allows the logger to be injected into the manager.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(mOpts *managerOpts) {
		mOpts.logger = logger
	}
}

// WithContext sets the root context instead of context.Background().
func WithContext(ctx context.Context) ManagerOption {
	return func(mOpts *managerOpts) {
		mOpts.rootContext = ctx
	}
}

// WithoutSignals disables the SIGINT/SIGTERM handler.
func WithoutSignals() ManagerOption {
	return func(mOpts *managerOpts) {
		mOpts.handleSignals = false
	}
}

// GracefulShutdown calls killFunc on the first termination signal.
// A second signal forces termination after termDelay and a third one terminates immediately.
func GracefulShutdown(ctx context.Context, killFunc func()) {
	log := ctxzap.Extract(ctx)
	intCh := make(chan os.Signal, 1)
	signal.Notify(intCh, os.Interrupt, syscall.SIGTERM)
	var sigCount int
	go func() {
		for sig := range intCh {
			switch sigCount {
			case 0:
				log.Info("Shutdown requested", zap.String("signal", sig.String()))
				go killFunc()
			case 1:
				log.Info("Delayed forced termination requested", zap.Duration("delay", termDelay), zap.String("signal", sig.String()))
				time.AfterFunc(termDelay, func() {
					os.Exit(2)
				})
			default:
				log.Warn("Forced termination requested", zap.String("signal", sig.String()))
				_ = log.Sync() // #nosec
				os.Exit(2)
			}
			sigCount++
		}
	}()
}

func (m *systemManager) Logger() *zap.Logger {
	return m.log
}

// Context returns the root context carrying the logger.
func (m *systemManager) Context() context.Context {
	return m.ctx
}

// ServiceContext is cancelled when the manager shuts down.
func (m *systemManager) ServiceContext() context.Context {
	return m.serviceCtx
}

func (m *systemManager) State() ServiceState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *systemManager) setState(state ServiceState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// Shutdown hooks run sequentially after the service context is cancelled.
func (m *systemManager) AddShutdownHook(hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, hook)
}

// Shutdown cancels the service context and runs the shutdown hooks. Subsequent calls are no-ops.
func (m *systemManager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.setState(Stopping)
		m.serviceCtxCancel()

		m.mu.RLock()
		hooks := m.shutdownHooks
		m.mu.RUnlock()

		m.log.Debug("Running shutdown hooks")
		for _, hook := range hooks {
			hook()
		}
		_ = m.log.Sync()
		m.setState(Terminated)
	})
}
