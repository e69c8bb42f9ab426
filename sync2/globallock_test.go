package sync2_test

import (
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/sync2"
)

func TestSync2(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "sync2 suite")
}

var _ = Describe("GlobalLock", func() {
	It("excludes concurrent acquirers", func() {
		lock := sync2.NewLocal()
		var mu sync.Mutex
		var holders, maxHolders int

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				Expect(lock.Acquire()).To(Succeed())
				mu.Lock()
				holders++
				if holders > maxHolders {
					maxHolders = holders
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				holders--
				mu.Unlock()
				lock.Release()
			}()
		}
		wg.Wait()
		Expect(maxHolders).To(Equal(1))
	})

	It("wakes a pending waiter on release", func() {
		var facs uint32
		wake := newFakeEvent()
		lock := sync2.New(&facs, wake)

		Expect(lock.Acquire()).To(Succeed())

		acquired := make(chan struct{})
		go func() {
			Expect(lock.Acquire()).To(Succeed())
			close(acquired)
		}()

		Eventually(wake.waited).Should(BeTrue())
		lock.Release()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			Fail("second Acquire never returned after Release")
		}
	})
})

type fakeEvent struct {
	mu     sync.Mutex
	ch     chan struct{}
	waitOK bool
}

func newFakeEvent() *fakeEvent { return &fakeEvent{ch: make(chan struct{}, 1)} }

func (e *fakeEvent) Signal() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

func (e *fakeEvent) Wait(time.Duration) bool {
	e.mu.Lock()
	e.waitOK = true
	e.mu.Unlock()
	<-e.ch
	return true
}

func (e *fakeEvent) Reset() {
	select {
	case <-e.ch:
	default:
	}
}

func (e *fakeEvent) waited() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waitOK
}
