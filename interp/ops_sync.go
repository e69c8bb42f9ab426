package interp

import (
	"time"

	"github.com/CascadeOS/uACPI/object"
)

// acquireMutex adapts object.MutexData's Acquire to the Engine's caller
// identity.
func acquireMutex(m *object.MutexData, callerID uint64, timeoutMs uint16) bool {
	return m.Acquire(callerID, timeoutMs)
}

// waitEvent blocks until ed is signaled or timeoutMs elapses (0xFFFF means
// indefinitely), reporting whether it consumed a signal in time.
func waitEvent(ed *object.EventData, timeoutMs uint64) bool {
	if ed.TryConsume() {
		return true
	}
	if timeoutMs == 0xFFFF {
		for !ed.TryConsume() {
			<-ed.Wake()
		}
		return true
	}
	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()
	for {
		select {
		case <-ed.Wake():
			if ed.TryConsume() {
				return true
			}
		case <-timer.C:
			return ed.TryConsume()
		}
	}
}
