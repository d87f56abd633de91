package payment_test

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/core/events"
	"github.com/frahmantamala/paylink/internal/payment"
	"github.com/frahmantamala/paylink/internal/paymentlink"
	"github.com/frahmantamala/paylink/internal/storage"
)

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		repo      *mockPaymentRepository
		assets    *mockAssets
		publisher *mockPublisher
		service   *payment.Service
		link      *paymentlink.PaymentLink
		dto       payment.SubmitPaymentDTO
	)

	proof := func() *storage.File {
		return &storage.File{Filename: "proof.jpg", Body: bytes.NewReader([]byte("jpg"))}
	}

	BeforeEach(func() {
		ctx = context.Background()
		link = &paymentlink.PaymentLink{
			ID:             uuid.NewString(),
			Slug:           "abcd1234",
			ProductName:    "Course A",
			FinalPrice:     decimal.NewFromInt(450000),
			PaymentMethods: []string{"bri", "qris"},
		}
		repo = &mockPaymentRepository{}
		assets = &mockAssets{}
		publisher = &mockPublisher{}
		service = payment.NewService(repo, &mockLinkResolver{links: map[string]*paymentlink.PaymentLink{"abcd1234": link}}, assets, publisher, quietLogger)
		dto = payment.SubmitPaymentDTO{
			PaymentMethod: "qris",
			BuyerName:     " Budi ",
			BuyerEmail:    "budi@example.com",
			BuyerWhatsapp: "081234567890",
		}
	})

	It("records a pending payment with the uploaded proof", func() {
		result, err := service.SubmitPayment(ctx, "abcd1234", dto, proof())

		Expect(err).NotTo(HaveOccurred())
		Expect(result.State).To(Equal(payment.SubmissionSubmitted))
		Expect(result.Payment.Status).To(Equal(payment.StatusPending))
		Expect(result.Payment.BuyerName).To(Equal("Budi"))
		Expect(result.Payment.PaymentLinkID).To(Equal(link.ID))
		Expect(*result.Payment.ProofImageURL).To(Equal(assets.put[0].URL))
		Expect(result.Payment.ProductName).To(Equal("Course A"))
		Expect(repo.count()).To(Equal(1))
		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].EventType()).To(Equal(events.EventTypePaymentSubmitted))
	})

	It("accepts a submission without proof", func() {
		result, err := service.SubmitPayment(ctx, "abcd1234", dto, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Payment.ProofImageURL).To(BeNil())
		Expect(assets.put).To(BeEmpty())
	})

	It("reports an unknown slug as link not found", func() {
		result, err := service.SubmitPayment(ctx, "zzzz9999", dto, proof())
		Expect(err).To(MatchError(internal.ErrLinkNotFound))
		Expect(result.State).To(Equal(payment.SubmissionError))
		Expect(assets.put).To(BeEmpty())
	})

	It("rejects a method the link does not accept before any write", func() {
		dto.PaymentMethod = "mandiri"
		result, err := service.SubmitPayment(ctx, "abcd1234", dto, proof())

		Expect(err).To(MatchError(internal.ErrMethodNotAllowed))
		Expect(result.Error.Code).To(Equal(internal.ErrCodeMethodNotAllowed))
		Expect(assets.put).To(BeEmpty())
		Expect(repo.count()).To(BeZero())
	})

	DescribeTable("buyer field validation",
		func(mutate func(*payment.SubmitPaymentDTO), field string) {
			mutate(&dto)
			_, err := service.SubmitPayment(ctx, "abcd1234", dto, proof())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
			Expect(appErr.Details.(internal.ValidationErrors).Errors[0].Field).To(Equal(field))
			Expect(assets.put).To(BeEmpty())
			Expect(repo.count()).To(BeZero())
		},
		Entry("blank name", func(d *payment.SubmitPaymentDTO) { d.BuyerName = "   " }, "buyer_name"),
		Entry("bad email", func(d *payment.SubmitPaymentDTO) { d.BuyerEmail = "budi" }, "buyer_email"),
		Entry("missing whatsapp", func(d *payment.SubmitPaymentDTO) { d.BuyerWhatsapp = "" }, "buyer_whatsapp"),
		Entry("missing method", func(d *payment.SubmitPaymentDTO) { d.PaymentMethod = "" }, "payment_method"),
	)

	It("aborts without a record when the proof upload fails", func() {
		assets.putErr = internal.ErrUploadFailed.WithCause(errors.New("timeout"))
		result, err := service.SubmitPayment(ctx, "abcd1234", dto, proof())

		Expect(err).To(MatchError(internal.ErrUploadFailed))
		Expect(result.State).To(Equal(payment.SubmissionError))
		Expect(repo.count()).To(BeZero())
	})

	It("removes the uploaded proof when the insert fails", func() {
		repo.createError = internal.ErrLinkNotFound.WithCause(errors.New("fk"))
		_, err := service.SubmitPayment(ctx, "abcd1234", dto, proof())

		Expect(err).To(MatchError(internal.ErrLinkNotFound))
		Expect(assets.removed).To(HaveLen(1))
		Expect(assets.removed[0].Name).To(Equal("1-proof.jpg"))
	})

	It("refuses an identical submission while the first is in flight", func() {
		repo.blockCreate = make(chan struct{})
		repo.entered = make(chan struct{}, 1)

		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			_, err := service.SubmitPayment(ctx, "abcd1234", dto, nil)
			done <- err
		}()
		Eventually(repo.entered).Should(Receive())

		_, err := service.SubmitPayment(ctx, "abcd1234", dto, nil)
		Expect(err).To(MatchError(internal.ErrSubmissionInProgress))

		close(repo.blockCreate)
		Eventually(done).Should(Receive(BeNil()))
		Expect(repo.count()).To(Equal(1))
	})

	It("lets a submission with a different whatsapp number run alongside", func() {
		repo.blockCreate = make(chan struct{})
		repo.entered = make(chan struct{}, 1)

		other := dto
		other.BuyerWhatsapp = "089876543210"

		done := make(chan error, 2)
		for _, submission := range []payment.SubmitPaymentDTO{dto, other} {
			submission := submission
			go func() {
				defer GinkgoRecover()
				_, err := service.SubmitPayment(ctx, "abcd1234", submission, nil)
				done <- err
			}()
			Eventually(repo.entered).Should(Receive())
		}

		close(repo.blockCreate)
		Eventually(done).Should(Receive(BeNil()))
		Eventually(done).Should(Receive(BeNil()))
		Expect(repo.count()).To(Equal(2))
	})
})
