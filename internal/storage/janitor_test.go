package storage_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal/storage"
)

type flakyStore struct {
	recordingStore
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *flakyStore) Delete(_ context.Context, bucket, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("storage unavailable")
	}
	s.deletes = append(s.deletes, bucket+"/"+name)
	return nil
}

func (s *flakyStore) snapshot() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]string(nil), s.deletes...)
}

var _ = Describe("Janitor", func() {
	fastConfig := storage.JanitorConfig{MaxWorkers: 1, QueueSize: 4, MaxAttempts: 3, Backoff: time.Millisecond, Timeout: time.Second}

	It("retries a removal until it succeeds", func() {
		store := &flakyStore{failures: 1}
		j := storage.NewJanitor(store, fastConfig, quietLogger())
		defer j.Shutdown()

		Expect(j.Enqueue("payment-proofs", "1-proof.png")).To(Succeed())
		Eventually(func() []string {
			_, deletes := store.snapshot()
			return deletes
		}).Should(Equal([]string{"payment-proofs/1-proof.png"}))
	})

	It("gives up after the configured attempts", func() {
		store := &flakyStore{failures: 100}
		j := storage.NewJanitor(store, fastConfig, quietLogger())
		defer j.Shutdown()

		Expect(j.Enqueue("qris-images", "qris-1-a.png")).To(Succeed())
		Eventually(func() int {
			calls, _ := store.snapshot()
			return calls
		}).Should(Equal(3))
		Consistently(func() int {
			calls, _ := store.snapshot()
			return calls
		}, 50*time.Millisecond).Should(Equal(3))
	})

	It("refuses work after shutdown", func() {
		j := storage.NewJanitor(&flakyStore{}, fastConfig, quietLogger())
		j.Shutdown()
		Expect(j.Enqueue("qris-images", "x.png")).To(MatchError(context.Canceled))
	})

	It("picks up removals that failed inline", func() {
		store := &flakyStore{failures: 1}
		j := storage.NewJanitor(store, fastConfig, quietLogger())
		defer j.Shutdown()
		assets := storage.NewAssets(store, "qris-images", "payment-proofs", storage.Limits{MaxBytes: 1 << 20, MaxDimension: 512}, quietLogger()).WithJanitor(j)

		err := assets.Remove(context.Background(), storage.Object{Bucket: "payment-proofs", Name: "2-proof.jpg"})
		Expect(err).To(HaveOccurred())
		Eventually(func() []string {
			_, deletes := store.snapshot()
			return deletes
		}).Should(ContainElement("payment-proofs/2-proof.jpg"))
	})
})
