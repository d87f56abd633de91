package paymentlink_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/paylink/internal"
	linkDatamodel "github.com/frahmantamala/paylink/internal/core/datamodel/paymentlink"
	"github.com/frahmantamala/paylink/internal/core/events"
	"github.com/frahmantamala/paylink/internal/core/pricing"
	"github.com/frahmantamala/paylink/internal/paymentlink"
	"github.com/frahmantamala/paylink/internal/storage"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func qrisFile() *storage.File {
	return &storage.File{Filename: "qris.png", ContentType: "image/png", Size: 3, Body: bytes.NewReader([]byte("png"))}
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		repo      *fakeRepo
		assets    *fakeAssets
		cache     *fakeCache
		publisher *recordingPublisher
		service   *paymentlink.Service
		admin     internal.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeRepo()
		assets = &fakeAssets{}
		cache = newFakeCache()
		publisher = &recordingPublisher{}
		service = paymentlink.NewService(repo, assets, cache, publisher, "https://pay.example.com", quietLogger)
		admin = internal.Session{UserID: uuid.NewString(), Email: "admin@example.com", Role: internal.RoleAdmin}
	})

	Describe("CreateLink", func() {
		It("computes the final price and returns the public url", func() {
			result, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName:     "Course A",
				NormalPrice:     dec("500000"),
				DiscountPercent: dec("10"),
				PaymentMethods:  []string{"bri"},
				BankBRIAccount:  "0011223344",
			}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Link.FinalPrice.Equal(decimal.NewFromInt(450000))).To(BeTrue())
			Expect(result.Link.Slug).To(MatchRegexp(`^[a-z0-9]{8}$`))
			Expect(result.URL).To(Equal("https://pay.example.com/pay/" + result.Link.Slug))
			Expect(*result.Link.BankBRIAccount).To(Equal("0011223344"))
			Expect(*result.Link.CreatedBy).To(Equal(admin.UserID))
			Expect(publisher.types()).To(Equal([]string{events.EventTypePaymentLinkCreated}))

			resolved, err := service.GetLink(ctx, result.Link.Slug)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ProductName).To(Equal("Course A"))
			Expect(resolved.FinalPrice.Equal(decimal.NewFromInt(450000))).To(BeTrue())
		})

		It("rejects an empty method set before touching storage", func() {
			_, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName:    "Course A",
				NormalPrice:    dec("100"),
				PaymentMethods: nil,
			}, qrisFile())

			Expect(err).To(MatchError(internal.NewValidationError("", internal.ErrCodeValidationFailed)))
			Expect(repo.links).To(BeEmpty())
			Expect(assets.put).To(BeEmpty())
			Expect(publisher.types()).To(BeEmpty())
		})

		DescribeTable("validation failures",
			func(dto paymentlink.CreateLinkDTO, field, code string) {
				_, err := service.CreateLink(ctx, admin, dto, nil)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				details := appErr.Details.(internal.ValidationErrors)
				Expect(details.Errors[0].Field).To(Equal(field))
				Expect(details.Errors[0].Code).To(Equal(code))
				Expect(repo.links).To(BeEmpty())
			},
			Entry("blank product", paymentlink.CreateLinkDTO{ProductName: "  ", NormalPrice: dec("1"), PaymentMethods: []string{"qris"}}, "product_name", "VALIDATION_FAILED"),
			Entry("missing price", paymentlink.CreateLinkDTO{ProductName: "A", PaymentMethods: []string{"qris"}}, "normal_price", "VALIDATION_FAILED"),
			Entry("negative price", paymentlink.CreateLinkDTO{ProductName: "A", NormalPrice: dec("-1"), PaymentMethods: []string{"qris"}}, "normal_price", "INVALID_PRICE"),
			Entry("discount above 100", paymentlink.CreateLinkDTO{ProductName: "A", NormalPrice: dec("1"), DiscountPercent: dec("101"), PaymentMethods: []string{"qris"}}, "discount_percent", "INVALID_DISCOUNT"),
			Entry("unknown method", paymentlink.CreateLinkDTO{ProductName: "A", NormalPrice: dec("1"), PaymentMethods: []string{"paypal"}}, "payment_methods", "VALIDATION_FAILED"),
		)

		It("accepts bri and mandiri without account numbers and stores them as null", func() {
			result, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName:        "Course B",
				NormalPrice:        dec("1000"),
				PaymentMethods:     []string{"mandiri", "bri", "bri"},
				BankMandiriAccount: "   ",
			}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Link.PaymentMethods).To(Equal([]string{"bri", "mandiri"}))
			Expect(result.Link.BankBRIAccount).To(BeNil())
			Expect(result.Link.BankMandiriAccount).To(BeNil())
			Expect(result.Link.DiscountPercent.IsZero()).To(BeTrue())
		})

		It("drops bank accounts for methods the link does not accept", func() {
			result, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName:        "Course C",
				NormalPrice:        dec("1000"),
				PaymentMethods:     []string{"qris"},
				BankBRIAccount:     "123",
				BankMandiriAccount: "456",
			}, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Link.BankBRIAccount).To(BeNil())
			Expect(result.Link.BankMandiriAccount).To(BeNil())
			Expect(result.Link.QRISImageURL).To(BeNil())
		})

		It("uploads the qris image only when qris is offered", func() {
			result, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName: "Course D", NormalPrice: dec("1000"), PaymentMethods: []string{"qris"},
			}, qrisFile())
			Expect(err).NotTo(HaveOccurred())
			Expect(assets.put).To(HaveLen(1))
			Expect(*result.Link.QRISImageURL).To(Equal(assets.put[0].URL))

			_, err = service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName: "Course E", NormalPrice: dec("1000"), PaymentMethods: []string{"bri"},
			}, qrisFile())
			Expect(err).NotTo(HaveOccurred())
			Expect(assets.put).To(HaveLen(1))
		})

		It("writes no record when the upload fails", func() {
			assets.putErr = internal.ErrUploadFailed.WithCause(errors.New("bucket missing"))

			_, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName: "Course F", NormalPrice: dec("1000"), PaymentMethods: []string{"qris"},
			}, qrisFile())

			Expect(err).To(MatchError(internal.ErrUploadFailed))
			Expect(repo.links).To(BeEmpty())
		})

		It("removes the uploaded image when the insert fails", func() {
			repo.createErr = errors.New("connection reset")

			_, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName: "Course G", NormalPrice: dec("1000"), PaymentMethods: []string{"qris"},
			}, qrisFile())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(assets.removed).To(HaveLen(1))
			Expect(assets.removed[0].Name).To(Equal(assets.put[0].Name))
		})

		It("stores a final price that the stored inputs reproduce", func() {
			result, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName:     "Course R",
				NormalPrice:     dec("300"),
				DiscountPercent: dec("33.333"),
				PaymentMethods:  []string{"bri"},
			}, nil)
			Expect(err).NotTo(HaveOccurred())

			stored := repo.links[uuid.MustParse(result.Link.ID)]
			Expect(stored.DiscountPercent.String()).To(Equal("33.33"))
			recomputed := pricing.FinalPrice(stored.NormalPrice, stored.DiscountPercent)
			Expect(stored.FinalPrice.Equal(recomputed)).To(BeTrue(), "final %s, recomputed %s", stored.FinalPrice, recomputed)
			Expect(stored.FinalPrice.String()).To(Equal("200.01"))
		})

		It("trims the product name before storing it", func() {
			result, err := service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName: "  Course A  ", NormalPrice: dec("1000"), PaymentMethods: []string{"bri"},
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Link.ProductName).To(Equal("Course A"))
			Expect(repo.links[uuid.MustParse(result.Link.ID)].ProductName).To(Equal("Course A"))
		})

		It("surfaces a slug collision as a conflict without retrying", func() {
			service.WithSlugGenerator(func() string { return "samesame" })
			dto := paymentlink.CreateLinkDTO{ProductName: "Course H", NormalPrice: dec("1000"), PaymentMethods: []string{"bri"}}

			_, err := service.CreateLink(ctx, admin, dto, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateLink(ctx, admin, dto, nil)
			Expect(err).To(MatchError(internal.ErrSlugTaken))
			Expect(repo.links).To(HaveLen(1))
		})
	})

	Describe("ListLinks", func() {
		It("returns newest first with public urls", func() {
			now := time.Now()
			Expect(repo.Create(ctx, &linkDatamodel.PaymentLink{Slug: "old00000", CreatedAt: now.Add(-time.Hour)})).To(Succeed())
			Expect(repo.Create(ctx, &linkDatamodel.PaymentLink{Slug: "new00000", CreatedAt: now})).To(Succeed())

			links, err := service.ListLinks(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(HaveLen(2))
			Expect(links[0].Slug).To(Equal("new00000"))
			Expect(links[0].URL).To(Equal("https://pay.example.com/pay/new00000"))
		})
	})

	Describe("owner scoping", func() {
		var (
			alice, bob internal.Session
			aliceLink  *paymentlink.CreateLinkResult
		)

		BeforeEach(func() {
			alice = internal.Session{UserID: uuid.NewString(), Role: internal.RoleUser}
			bob = internal.Session{UserID: uuid.NewString(), Role: internal.RoleUser}

			var err error
			aliceLink, err = service.CreateLink(ctx, alice, paymentlink.CreateLinkDTO{
				ProductName: "Alice Course", NormalPrice: dec("1000"), PaymentMethods: []string{"bri"},
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateLink(ctx, admin, paymentlink.CreateLinkDTO{
				ProductName: "Admin Course", NormalPrice: dec("1000"), PaymentMethods: []string{"bri"},
			}, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists only the caller's links for a regular user", func() {
			links, err := service.ListLinks(ctx, alice)
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(HaveLen(1))
			Expect(links[0].ProductName).To(Equal("Alice Course"))

			links, err = service.ListLinks(ctx, bob)
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(BeEmpty())

			links, err = service.ListLinks(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(HaveLen(2))
		})

		It("hides another user's link from delete", func() {
			_, err := service.DeleteLink(ctx, bob, aliceLink.Link.ID)
			Expect(err).To(MatchError(internal.ErrLinkNotFound))
			Expect(repo.links).To(HaveLen(2))
			Expect(publisher.types()).NotTo(ContainElement(events.EventTypePaymentLinkDeleted))

			_, err = service.DeleteLink(ctx, alice, aliceLink.Link.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.links).To(HaveLen(1))
		})

		It("lets an admin delete any link", func() {
			_, err := service.DeleteLink(ctx, admin, aliceLink.Link.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires a session", func() {
			_, err := service.ListLinks(ctx, internal.AnonymousSession())
			Expect(err).To(MatchError(internal.ErrLoginRequired))
			_, err = service.DeleteLink(ctx, internal.AnonymousSession(), aliceLink.Link.ID)
			Expect(err).To(MatchError(internal.ErrLoginRequired))
		})
	})

	Describe("GetLink", func() {
		BeforeEach(func() {
			Expect(repo.Create(ctx, &linkDatamodel.PaymentLink{Slug: "abcd1234", ProductName: "Course A"})).To(Succeed())
		})

		It("short-circuits malformed slugs", func() {
			_, err := service.GetLink(ctx, "NOT-A-SLUG")
			Expect(err).To(MatchError(internal.ErrLinkNotFound))
			Expect(repo.getCalls).To(BeZero())
		})

		It("reports unknown slugs as not found", func() {
			_, err := service.GetLink(ctx, "zzzz9999")
			Expect(err).To(MatchError(internal.ErrLinkNotFound))
		})

		It("serves repeat lookups from the cache", func() {
			_, err := service.GetLink(ctx, "abcd1234")
			Expect(err).NotTo(HaveOccurred())
			link, err := service.GetLink(ctx, "abcd1234")
			Expect(err).NotTo(HaveOccurred())
			Expect(link.ProductName).To(Equal("Course A"))
			Expect(repo.getCalls).To(Equal(1))
		})

		It("falls back to the repository when the cache fails", func() {
			cache.failGet = true
			link, err := service.GetLink(ctx, "abcd1234")
			Expect(err).NotTo(HaveOccurred())
			Expect(link.ProductName).To(Equal("Course A"))
		})
	})

	Describe("DeleteLink", func() {
		It("deletes, invalidates the cache, publishes the payment count and removes the qris image", func() {
			url := "https://cdn.test/qris-images/qris-1-a.png"
			record := &linkDatamodel.PaymentLink{Slug: "abcd1234", QRISImageURL: &url}
			Expect(repo.Create(ctx, record)).To(Succeed())
			repo.payments[record.ID] = 4

			_, err := service.GetLink(ctx, "abcd1234")
			Expect(err).NotTo(HaveOccurred())
			Expect(cache.has(paymentlink.CacheKey("abcd1234"))).To(BeTrue())

			result, err := service.DeleteLink(ctx, admin, record.ID.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.DeletedPayments).To(Equal(int64(4)))
			Expect(cache.has(paymentlink.CacheKey("abcd1234"))).To(BeFalse())
			Expect(assets.removedURLs).To(Equal([]string{url}))
			Expect(publisher.types()).To(Equal([]string{events.EventTypePaymentLinkDeleted}))

			_, err = service.GetLink(ctx, "abcd1234")
			Expect(err).To(MatchError(internal.ErrLinkNotFound))
		})

		It("returns not found for unknown or malformed ids", func() {
			_, err := service.DeleteLink(ctx, admin, uuid.NewString())
			Expect(err).To(MatchError(internal.ErrLinkNotFound))

			_, err = service.DeleteLink(ctx, admin, "42")
			Expect(err).To(MatchError(internal.ErrLinkNotFound))
		})
	})

	Describe("Quote", func() {
		It("previews the discount breakdown", func() {
			quote, err := service.Quote(paymentlink.QuoteDTO{NormalPrice: dec("199999"), DiscountPercent: dec("15")})
			Expect(err).NotTo(HaveOccurred())
			Expect(quote.FinalPrice.String()).To(Equal("169999.15"))
			Expect(quote.DiscountAmount.String()).To(Equal("29999.85"))
		})

		It("requires a price", func() {
			_, err := service.Quote(paymentlink.QuoteDTO{})
			Expect(err).To(HaveOccurred())
		})
	})
})
