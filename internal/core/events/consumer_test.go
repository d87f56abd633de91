package events_test

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal/core/events"
)

var _ = Describe("KafkaConsumer", func() {
	It("lists one topic per known event type", func() {
		Expect(events.Topics("paylink.")).To(ConsistOf(
			"paylink.payment_link.created",
			"paylink.payment_link.deleted",
			"paylink.payment.submitted",
			"paylink.payment.status_changed",
		))
	})

	It("replays relayed events into the local bus", func() {
		original := events.NewPaymentStatusChangedEvent("pay-1", "pending", "confirmed", "admin-1")
		value, err := json.Marshal(original)
		Expect(err).NotTo(HaveOccurred())

		bus := events.NewEventBus(quietLogger)
		var received []events.Event
		bus.Subscribe(events.EventTypePaymentStatusChanged, func(_ context.Context, e events.Event) error {
			received = append(received, e)
			return nil
		})

		consumer := events.NewKafkaConsumer(bus, quietLogger)
		consumer.Handle(context.Background(), &sarama.ConsumerMessage{Topic: "paylink.payment.status_changed", Value: value})

		Expect(received).To(HaveLen(1))
		Expect(received[0].EventID()).To(Equal(original.EventID()))
		Expect(received[0].AggregateID()).To(Equal("pay-1"))
		Expect(received[0].Payload()).To(HaveKeyWithValue("to", "confirmed"))
	})

	It("skips messages that are not events", func() {
		_, err := events.DecodeMessage(&sarama.ConsumerMessage{Topic: "t", Value: []byte(`{"hello":"world"}`)})
		Expect(err).To(HaveOccurred())

		_, err = events.DecodeMessage(&sarama.ConsumerMessage{Topic: "t", Value: []byte(`not json`)})
		Expect(err).To(HaveOccurred())
	})
})
