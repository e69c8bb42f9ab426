package event_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/event"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
)

func TestEvent(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "event suite")
}

var _ = Describe("Manager", func() {
	var (
		tree *namespace.Tree
		mgr  *event.Manager
	)

	BeforeEach(func() {
		tree = namespace.NewTree()
		mgr = event.NewManager(tree, nil)
	})

	Describe("GPE dispatch", func() {
		It("re-enables an edge-triggered GPE after a native handler runs", func() {
			block := event.NewBlock(0, tree.Root(), 4)
			Expect(block.SetState(1, event.EnabledRuntime)).To(Succeed())
			Expect(block.SetTrigger(1, event.Edge)).To(Succeed())

			var fired bool
			_, err := mgr.InstallHandler(block, 1, func(*event.Block, int) event.Disposition {
				fired = true
				return event.Rearm
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(mgr.Trigger(context.Background(), block, 1)).To(Succeed())
			Expect(fired).To(BeTrue())

			s, err := block.State(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(Equal(event.EnabledRuntime))
		})

		It("leaves a level-triggered GPE disabled when the handler asks to leave it disabled", func() {
			block := event.NewBlock(0, tree.Root(), 4)
			Expect(block.SetState(2, event.EnabledRuntime)).To(Succeed())
			Expect(block.SetTrigger(2, event.Level)).To(Succeed())

			_, err := mgr.InstallHandler(block, 2, func(*event.Block, int) event.Disposition {
				return event.LeaveDisabled
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(mgr.Trigger(context.Background(), block, 2)).To(Succeed())
			s, err := block.State(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(Equal(event.Disabled))
		})

		It("skips a Disabled GPE without invoking any handler", func() {
			block := event.NewBlock(0, tree.Root(), 4)
			called := false
			_, err := mgr.InstallHandler(block, 0, func(*event.Block, int) event.Disposition {
				called = true
				return event.Rearm
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(mgr.Trigger(context.Background(), block, 0)).To(Succeed())
			Expect(called).To(BeFalse())
		})

		It("bounds concurrent dispatch across a batch", func() {
			block := event.NewBlock(0, tree.Root(), 16)
			for i := 0; i < 16; i++ {
				Expect(block.SetState(i, event.EnabledRuntime)).To(Succeed())
			}
			var mu sync.Mutex
			var maxInFlight, inFlight int
			reqs := make([]event.TriggerRequest, 16)
			for i := 0; i < 16; i++ {
				i := i
				_, err := mgr.InstallHandler(block, i, func(*event.Block, int) event.Disposition {
					mu.Lock()
					inFlight++
					if inFlight > maxInFlight {
						maxInFlight = inFlight
					}
					mu.Unlock()
					time.Sleep(5 * time.Millisecond)
					mu.Lock()
					inFlight--
					mu.Unlock()
					return event.Rearm
				})
				Expect(err).NotTo(HaveOccurred())
				reqs[i] = event.TriggerRequest{Block: block, Index: i}
			}
			Expect(mgr.DispatchBatch(context.Background(), reqs)).To(Succeed())
			Expect(maxInFlight).To(BeNumerically("<=", 8))
		})
	})

	Describe("Notify", func() {
		It("delivers Notify values to a registered handler in FIFO order", func() {
			target := object.NewDevice()
			var mu sync.Mutex
			var seen []uint64
			done := make(chan struct{})
			mgr.InstallNotifyHandler(target, func(_ *object.Object, value uint64) {
				mu.Lock()
				seen = append(seen, value)
				n := len(seen)
				mu.Unlock()
				if n == 3 {
					close(done)
				}
			})

			mgr.Notify(target, 1)
			mgr.Notify(target, 2)
			mgr.Notify(target, 3)

			select {
			case <-done:
			case <-time.After(time.Second):
				Fail("Notify handler did not observe all three events")
			}
			mu.Lock()
			defer mu.Unlock()
			Expect(seen).To(Equal([]uint64{1, 2, 3}))
		})
	})

	Describe("Fixed events", func() {
		It("dispatches to the installed handler", func() {
			var got event.FixedEvent
			fired := make(chan struct{})
			mgr.InstallFixedHandler(event.PowerButton, func(e event.FixedEvent) {
				got = e
				close(fired)
			})
			mgr.FireFixed(event.PowerButton)
			select {
			case <-fired:
			case <-time.After(time.Second):
				Fail("fixed handler not invoked")
			}
			Expect(got).To(Equal(event.PowerButton))
		})
	})
})
