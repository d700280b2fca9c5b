package main

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/safar/crm-store/internal/config"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(port int) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		Server: config.ServerConfig{
			Port:            strconv.Itoa(port),
			GraphQLPath:     "/graphql",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
	}
}

func TestRunReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	logger, _ := test.NewNullLogger()
	port := ln.Addr().(*net.TCPAddr).Port

	done := make(chan error, 1)
	go func() { done <- run(context.Background(), testConfig(port), logger) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "serve")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the listener failed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	logger, hook := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- run(ctx, testConfig(port), logger) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		var messages []string
		for _, e := range hook.AllEntries() {
			messages = append(messages, e.Message)
		}
		assert.Contains(t, messages, "shutting down")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}
