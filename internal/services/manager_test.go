package services

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap/zaptest"

	"github.com/coinbase/chaingov/internal/utils/testutil"
)

func TestManager_Shutdown(t *testing.T) {
	require := testutil.Require(t)

	logger := zaptest.NewLogger(t)
	manager := NewManager(WithLogger(logger), WithoutSignals(), WithContext(context.Background()))
	require.Equal(Running, manager.State())
	require.Equal(logger, ctxzap.Extract(manager.Context()))

	calls := 0
	manager.AddShutdownHook(func() { calls += 1 })
	manager.AddShutdownHook(func() { calls += 10 })

	manager.Shutdown()
	manager.Shutdown()

	require.Equal(11, calls)
	require.Equal(Terminated, manager.State())
	require.Error(manager.ServiceContext().Err())
	require.NoError(manager.Context().Err())
}

func TestMockManager_Shutdown(t *testing.T) {
	require := testutil.Require(t)

	manager := NewMockSystemManager()
	calls := 0
	manager.AddShutdownHook(func() { calls += 1 })
	manager.Shutdown()
	manager.Shutdown()
	require.Equal(1, calls)
	require.Equal(Running, manager.State())
}
