package client

import (
	"sync"
	"time"
)

// DefaultTypingIdle is how long after the last keystroke typing-stop is sent.
const DefaultTypingIdle = time.Second

// Debouncer turns a stream of keystrokes into typing start/stop signals.
// Every keystroke fires onStart and reschedules a single pending onStop.
type Debouncer struct {
	idle    time.Duration
	onStart func()
	onStop  func()

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// NewDebouncer builds a debouncer; a non-positive idle uses DefaultTypingIdle.
func NewDebouncer(idle time.Duration, onStart, onStop func()) *Debouncer {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &Debouncer{idle: idle, onStart: onStart, onStop: onStop}
}

// Keystroke signals typing and restarts the idle countdown.
func (d *Debouncer) Keystroke() {
	d.onStart()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.idle, func() { d.expire(gen) })
}

// Flush cancels the countdown and fires onStop immediately.
func (d *Debouncer) Flush() {
	d.Cancel()
	d.onStop()
}

// Cancel drops the pending countdown without firing onStop.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether an onStop is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// A newer keystroke or a cancel superseded this timer.
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.onStop()
}
