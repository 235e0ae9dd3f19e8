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

// sentry-node runs the sensor node firmware loop: it watches the motion
// sensor and rearm button, drives the indicator LED and buzzer, handles
// RFID cards and speaks the serial protocol to the host controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/conn/v3/gpio"

	sentry "github.com/kgames/go-sentry"
	"github.com/kgames/go-sentry/hw"
	"github.com/kgames/go-sentry/transport/uart"
)

type config struct {
	devicePath string
	motionPin  string
	buttonPin  string
	redPin     string
	greenPin   string
	bluePin    string
	buzzerPin  string
	baudRate   int
	debug      bool
}

// Package-level flag variables
var (
	flagDevicePath string
	flagBaudRate   int
	flagMotionPin  string
	flagButtonPin  string
	flagRedPin     string
	flagGreenPin   string
	flagBluePin    string
	flagBuzzerPin  string
	flagDebug      bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "/dev/ttyAMA0", "Serial device connected to the host controller")
	flag.IntVar(&flagBaudRate, "baud", uart.DefaultBaudRate, "Serial baud rate")
	flag.StringVar(&flagMotionPin, "motion-pin", "GPIO17", "Motion sensor input pin")
	flag.StringVar(&flagButtonPin, "button-pin", "GPIO27", "Rearm button input pin (pull-up, active low)")
	flag.StringVar(&flagRedPin, "red-pin", "GPIO5", "LED red channel pin")
	flag.StringVar(&flagGreenPin, "green-pin", "GPIO6", "LED green channel pin")
	flag.StringVar(&flagBluePin, "blue-pin", "GPIO13", "LED blue channel pin")
	flag.StringVar(&flagBuzzerPin, "buzzer-pin", "GPIO22", "Buzzer output pin")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		devicePath: flagDevicePath,
		baudRate:   flagBaudRate,
		motionPin:  flagMotionPin,
		buttonPin:  flagButtonPin,
		redPin:     flagRedPin,
		greenPin:   flagGreenPin,
		bluePin:    flagBluePin,
		buzzerPin:  flagBuzzerPin,
		debug:      flagDebug,
	}

	if cfg.debug {
		sentry.SetDebugEnabled(true)
	}

	return cfg
}

func buildPeripherals(cfg *config) (sentry.Peripherals, error) {
	if err := hw.Init(); err != nil {
		return sentry.Peripherals{}, fmt.Errorf("host init: %w", err)
	}

	motion, err := hw.NewInput(cfg.motionPin, gpio.PullDown)
	if err != nil {
		return sentry.Peripherals{}, fmt.Errorf("motion pin: %w", err)
	}
	button, err := hw.NewInput(cfg.buttonPin, gpio.PullUp)
	if err != nil {
		return sentry.Peripherals{}, fmt.Errorf("button pin: %w", err)
	}
	led, err := hw.NewLED(cfg.redPin, cfg.greenPin, cfg.bluePin)
	if err != nil {
		return sentry.Peripherals{}, fmt.Errorf("led pins: %w", err)
	}
	buzzer, err := hw.NewBuzzer(cfg.buzzerPin)
	if err != nil {
		return sentry.Peripherals{}, fmt.Errorf("buzzer pin: %w", err)
	}

	return sentry.Peripherals{
		Motion: motion,
		Button: button,
		LED:    led,
		Buzzer: buzzer,
		// No reader driver is wired; card events never fire.
		RFID: sentry.NullTransceiver{},
	}, nil
}

func run(ctx context.Context, cfg *config) error {
	port, err := uart.New(cfg.devicePath, uart.WithBaudRate(cfg.baudRate))
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close port: %v\n", err)
		}
	}()

	ph, err := buildPeripherals(cfg)
	if err != nil {
		return err
	}

	node, err := sentry.New(port, ph)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	if err := node.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("node loop: %w", err)
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
