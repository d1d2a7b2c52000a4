package dbusipc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 100, cfg.MaxDispatchProcTimeMsec)
	require.Equal(t, 0, cfg.DispatchPriority)
	require.Equal(t, 100*time.Millisecond, cfg.MaxDispatchProcTime())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("DBUSIPC_MAX_DISPATCH_PROC_TIME_MSEC", "250")
	t.Setenv("DBUSIPC_DISPATCH_PRIORITY", "-1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.MaxDispatchProcTime())
	require.Equal(t, -1, int(cfg.Priority()))
}

func TestLoadConfigRejectsMalformedValue(t *testing.T) {
	t.Setenv("DBUSIPC_MAX_DISPATCH_PROC_TIME_MSEC", "not-a-number")

	_, err := LoadConfig()
	require.Error(t, err)
}
