package payment

import (
	"strings"
	"sync"

	"github.com/frahmantamala/paylink/internal"
)

// SubmissionState is where one buyer submission attempt stands.
type SubmissionState string

const (
	SubmissionIdle       SubmissionState = "idle"
	SubmissionSubmitting SubmissionState = "submitting"
	SubmissionSubmitted  SubmissionState = "submitted"
	SubmissionError      SubmissionState = "error"
)

type SubmissionResult struct {
	State   SubmissionState    `json:"state"`
	Payment *Payment           `json:"payment,omitempty"`
	Error   *internal.AppError `json:"error,omitempty"`
}

// inflight tracks submissions between upload and insert so an identical resubmission is
// refused while the first one is still running.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

func submissionKey(linkID string, dto SubmitPaymentDTO) string {
	return strings.Join([]string{linkID, dto.PaymentMethod, strings.ToLower(dto.BuyerEmail), dto.BuyerWhatsapp}, "|")
}

func (f *inflight) begin(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) end(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}
