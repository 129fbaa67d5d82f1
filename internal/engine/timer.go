package engine

import "time"

// Timer is a one-shot delay owned by the coordinator. The zero value and
// nil are both safe to Stop.
type Timer struct {
	t *time.Timer
}

// AfterFunc schedules f after d.
func AfterFunc(d time.Duration, f func()) *Timer {
	return &Timer{t: time.AfterFunc(d, f)}
}

// Stop cancels the timer. It reports false if it already fired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.t == nil {
		return false
	}
	return t.t.Stop()
}
