// Copyright 2026 The KGames Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// sentry-host runs the alarm controller: it talks to a sensor node over
// a serial link, runs the security state machine and optionally bridges
// events and commands to an MQTT broker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	sentry "github.com/kgames/go-sentry"
	"github.com/kgames/go-sentry/host"
	"github.com/kgames/go-sentry/host/mqtt"
	"github.com/kgames/go-sentry/transport/uart"
)

type config struct {
	devicePath string
	brokerURL  string
	secret     string
	baudRate   int
	debug      bool
}

// Package-level flag variables
var (
	flagDevicePath string
	flagBaudRate   int
	flagBrokerURL  string
	flagSecret     string
	flagDebug      bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "/dev/ttyUSB0", "Serial device connected to the sensor node")
	flag.IntVar(&flagBaudRate, "baud", uart.DefaultBaudRate, "Serial baud rate")
	flag.StringVar(&flagBrokerURL, "broker", "",
		"MQTT broker URL, e.g. mqtt://broker:1883/home/sentry (empty runs without MQTT)")
	flag.StringVar(&flagSecret, "secret", "",
		"Card secret for local authentication (empty delegates to the MQTT authenticator)")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		devicePath: flagDevicePath,
		baudRate:   flagBaudRate,
		brokerURL:  flagBrokerURL,
		secret:     flagSecret,
		debug:      flagDebug,
	}

	if cfg.debug {
		sentry.SetDebugEnabled(true)
	}

	return cfg
}

func newLogger(cfg *config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func run(ctx context.Context, cfg *config) error {
	logger := newLogger(cfg)

	port, err := uart.New(cfg.devicePath, uart.WithBaudRate(cfg.baudRate))
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			logger.Warn().Err(err).Msg("close port")
		}
	}()

	ctrlCfg := host.DefaultControllerConfig()
	ctrlCfg.Secret = cfg.secret

	ctrl := host.NewController(nil, host.WithControllerConfig(ctrlCfg))

	publish := func(msg string) {
		logger.Info().Str("event", msg).Msg("state")
	}

	if cfg.brokerURL != "" {
		bridge, err := mqtt.NewBridge(cfg.brokerURL, ctrl, logger)
		if err != nil {
			return err
		}
		if err := bridge.Connect(); err != nil {
			return err
		}
		defer bridge.Close()
		publish = bridge.PublishEvent
	} else {
		ctrl.SetPublisher(publish)
		ctrl.SetAuthPublisher(func(msg string) {
			logger.Info().Str("auth", msg).Msg("auth")
		})
	}

	client, err := host.NewClient(port, ctrl)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	ctrl.SetCommander(client)

	client.OnConnect = func() {
		logger.Info().Msg("node connected")
		publish("NODE_CONNECTED")
	}
	client.OnDisconnect = func() {
		logger.Warn().Msg("node heartbeat lost")
		publish("NODE_DISCONNECTED")
	}
	client.OnHeartbeat = func() {
		publish("NODE_HEARTBEAT")
	}

	logger.Info().
		Str("device", cfg.devicePath).
		Int("baud", cfg.baudRate).
		Msg("controller running")

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("host loop: %w", err)
	}
	return nil
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
