package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStart_OrdersByDependsOn(t *testing.T) {
	var started []string

	s := NewStartup(testLogger(), 1)
	s.AddDependency(&Dependency{
		Name:  "server",
		Needs: []string{"database"},
		StartFn: func(context.Context) error {
			started = append(started, "server")
			return nil
		},
	})
	s.AddDependency(&Dependency{
		Name: "database",
		StartFn: func(context.Context) error {
			started = append(started, "database")
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"database", "server"}, started)
}

func TestStart_RetriesUntilSuccess(t *testing.T) {
	attempts := 0

	s := NewStartup(testLogger(), 3)
	s.AddDependency(&Dependency{
		Name: "flaky",
		StartFn: func(context.Context) error {
			attempts++
			if attempts < 2 {
				return errors.New("not yet")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 2, attempts)
}

func TestStart_FailsAfterMaxAttempts(t *testing.T) {
	s := NewStartup(testLogger(), 2)
	s.AddDependency(&Dependency{
		Name:    "down",
		StartFn: func(context.Context) error { return errors.New("unreachable") },
	})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestStop_ReverseOrderSkipsUnstarted(t *testing.T) {
	var stopped []string

	s := NewStartup(testLogger(), 1)
	s.AddDependency(&Dependency{
		Name:   "database",
		StopFn: func(context.Context) error { stopped = append(stopped, "database"); return nil },
	})
	s.AddDependency(&Dependency{
		Name:   "kafka",
		StopFn: func(context.Context) error { stopped = append(stopped, "kafka"); return nil },
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"kafka", "database"}, stopped)
}
