package metrics

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/xcharge/core/metrics"
	"github.com/kilianp07/xcharge/test/util"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestStartPromServer_ServesDefaultRegistry(t *testing.T) {
	s, err := NewPromSink()
	require.NoError(t, err)
	require.NoError(t, s.RecordTransition(coremetrics.TransitionEvent{From: "welcome", To: "map", Reason: "enter"}))

	ctx, cancel := context.WithCancel(context.Background())
	addr := freeAddr(t)
	errCh := make(chan error, 1)
	go func() { errCh <- StartPromServer(ctx, addr) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	require.NoError(t, util.WaitForMetric(waitCtx, "http://"+addr+"/metrics", "xcharge_stage_transitions_total"))

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
