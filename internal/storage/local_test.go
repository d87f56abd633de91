package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal/storage"
)

var _ = Describe("LocalStore", func() {
	var (
		dir   string
		store *storage.LocalStore
		ctx   context.Context
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		store = storage.NewLocalStore(dir, "http://localhost:8080/assets/", quietLogger())
		ctx = context.Background()
	})

	It("writes objects under the bucket directory", func() {
		url, err := store.Upload(ctx, "qris-images", "qris-1-a.png", "image/png", strings.NewReader("png"), 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(Equal("http://localhost:8080/assets/qris-images/qris-1-a.png"))

		content, err := os.ReadFile(filepath.Join(dir, "qris-images", "qris-1-a.png"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("png"))
	})

	It("does not overwrite an existing object", func() {
		_, err := store.Upload(ctx, "qris-images", "same.png", "image/png", strings.NewReader("one"), 3)
		Expect(err).NotTo(HaveOccurred())
		_, err = store.Upload(ctx, "qris-images", "same.png", "image/png", strings.NewReader("two"), 3)
		Expect(err).To(HaveOccurred())
	})

	It("deletes idempotently and maps URLs back to names", func() {
		url, err := store.Upload(ctx, "payment-proofs", "1-proof.png", "image/png", strings.NewReader("p"), 1)
		Expect(err).NotTo(HaveOccurred())

		name, ok := store.NameFromURL("payment-proofs", url)
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("1-proof.png"))

		Expect(store.Delete(ctx, "payment-proofs", name)).To(Succeed())
		Expect(store.Delete(ctx, "payment-proofs", name)).To(Succeed())
		_, err = os.Stat(filepath.Join(dir, "payment-proofs", name))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
