package moderation

type SetStatusDTO struct {
	Status string `json:"status"`
}

type StatusChangeResult struct {
	ID         string `json:"id"`
	FromStatus string `json:"from_status"`
	Status     string `json:"status"`
}

type DeletePaymentResult struct {
	ID string `json:"id"`
}
