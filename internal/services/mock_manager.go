package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/coinbase/chaingov/internal/utils/log"
)

type MockSystemManager struct {
	GContext        context.Context
	GLogger         *zap.Logger
	GServiceContext context.Context
	GShutdownHooks  []ShutdownHook

	mu sync.Mutex
}

func NewMockSystemManager() *MockSystemManager {
	return &MockSystemManager{
		GContext:        context.Background(),
		GServiceContext: context.Background(),
		GLogger:         log.NewDevelopment(),
	}
}

func (m *MockSystemManager) Context() context.Context {
	return m.GContext
}

func (m *MockSystemManager) Logger() *zap.Logger {
	return m.GLogger
}

func (m *MockSystemManager) ServiceContext() context.Context {
	return m.GServiceContext
}

func (m *MockSystemManager) State() ServiceState {
	return Running
}

func (m *MockSystemManager) AddShutdownHook(hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GShutdownHooks = append(m.GShutdownHooks, hook)
}

func (m *MockSystemManager) Shutdown() {
	m.mu.Lock()
	hooks := m.GShutdownHooks
	m.GShutdownHooks = nil
	m.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}
