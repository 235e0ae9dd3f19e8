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

// Package hw provides periph.io-backed implementations of the node's
// peripheral capabilities: the motion and button inputs, the RGB
// indicator and the buzzer. The RFID transceiver is not implemented
// here; any driver satisfying sentry.Transceiver plugs in.
package hw

import (
	"fmt"

	sentry "github.com/kgames/go-sentry"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// ledPWMFreq approximates the slow PWM of small hobbyist boards, fast
// enough to be flicker-free on an indicator LED.
const ledPWMFreq = 500 * physic.Hertz

// Init loads the host drivers. Call once before opening any pin.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return nil
}

// Input is a digital input pin.
type Input struct {
	pin gpio.PinIn
}

// NewInput opens an input pin by name with the given pull resistor.
// The motion sensor and the rearm button both use pull-up wiring.
func NewInput(name string, pull gpio.Pull) (*Input, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no such pin: %s", name)
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure pin %s: %w", name, err)
	}
	return &Input{pin: pin}, nil
}

// Read implements sentry.DigitalInput.
func (i *Input) Read() bool {
	return i.pin.Read() == gpio.High
}

// LED drives three PWM output pins as one RGB indicator.
type LED struct {
	r gpio.PinIO
	g gpio.PinIO
	b gpio.PinIO
}

// NewLED opens the three channel pins by name.
func NewLED(rName, gName, bName string) (*LED, error) {
	led := &LED{}
	for _, ch := range []struct {
		dst  *gpio.PinIO
		name string
	}{
		{&led.r, rName},
		{&led.g, gName},
		{&led.b, bName},
	} {
		pin := gpioreg.ByName(ch.name)
		if pin == nil {
			return nil, fmt.Errorf("no such pin: %s", ch.name)
		}
		*ch.dst = pin
	}
	led.SetColor(sentry.RGBColor{})
	return led, nil
}

// SetColor implements sentry.LED.
func (l *LED) SetColor(c sentry.RGBColor) {
	setChannel(l.r, c.R)
	setChannel(l.g, c.G)
	setChannel(l.b, c.B)
}

func setChannel(pin gpio.PinIO, value uint8) {
	duty := gpio.Duty(int64(value) * int64(gpio.DutyMax) / 255)
	if err := pin.PWM(duty, ledPWMFreq); err != nil {
		// Not every pin does hardware PWM; degrade to on/off.
		_ = pin.Out(gpio.Level(value >= 128))
	}
}

// Buzzer is a binary output pin.
type Buzzer struct {
	pin gpio.PinOut
}

// NewBuzzer opens the buzzer pin by name, initially off.
func NewBuzzer(name string) (*Buzzer, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no such pin: %s", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure pin %s: %w", name, err)
	}
	return &Buzzer{pin: pin}, nil
}

// Set implements sentry.Buzzer.
func (b *Buzzer) Set(on bool) {
	_ = b.pin.Out(gpio.Level(on))
}
