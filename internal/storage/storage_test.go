package storage_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal/storage"
)

var _ = Describe("Object names", func() {
	now := time.UnixMilli(1717171717171)

	It("prefixes QRIS objects and keeps the original name", func() {
		Expect(storage.QRISObjectName("qris.png", now)).To(Equal("qris-1717171717171-qris.png"))
	})

	It("prefixes proofs with the timestamp only", func() {
		Expect(storage.ProofObjectName("bukti transfer.jpg", now)).To(Equal("1717171717171-bukti_transfer.jpg"))
	})

	DescribeTable("SanitizeFilename",
		func(in, want string) {
			Expect(storage.SanitizeFilename(in)).To(Equal(want))
		},
		Entry("plain", "proof.png", "proof.png"),
		Entry("spaces and symbols", "my proof (1).png", "my_proof_1_.png"),
		Entry("path components dropped", "../../etc/passwd", "passwd"),
		Entry("windows path", `C:\Users\me\qr.jpg`, "qr.jpg"),
		Entry("empty", "", "upload"),
		Entry("only dots", "..", "upload"),
	)
})
