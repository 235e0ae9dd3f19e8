//go:build !deadlock

// Package syncutil provides the mutex types used by the link and host
// packages. The default build uses plain sync mutexes; build with
// -tags=deadlock to swap in github.com/sasha-s/go-deadlock and get
// lock-ordering diagnostics during development.
package syncutil

import "sync"

// Mutex wraps sync.Mutex. Build with -tags=deadlock for deadlock detection.
type Mutex struct {
	sync.Mutex
}

// RWMutex wraps sync.RWMutex. Build with -tags=deadlock for deadlock detection.
type RWMutex struct {
	sync.RWMutex
}
