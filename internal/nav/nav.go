// Package nav abstracts client-side navigation so that session code can
// send the user to the login entry point without knowing the UI.
package nav

import "sync"

// LoginPath is the login entry point.
const LoginPath = "/login"

type Navigator interface {
	ToLogin()
}

// Func adapts a function to Navigator.
type Func func()

func (f Func) ToLogin() { f() }

// Recorder counts navigations. Useful when there is no UI attached.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) ToLogin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, LoginPath)
}

// Paths returns the recorded navigations in order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Count returns how many times the login page was requested.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}
