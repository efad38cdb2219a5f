// models/payment_status.go
package models

import "time"

type PaymentStatus int

const (
	PaymentStatusProcessing PaymentStatus = 0

	PaymentStatusFailed PaymentStatus = 1

	PaymentStatusSuccess PaymentStatus = 3
)

func (ps PaymentStatus) String() string {
	switch ps {
	case PaymentStatusProcessing:
		return "processing"
	case PaymentStatusFailed:
		return "failed"
	case PaymentStatusSuccess:
		return "success"
	default:
		return "unknown"
	}
}

func (ps PaymentStatus) IsValid() bool {
	return ps == PaymentStatusProcessing || ps == PaymentStatusFailed || ps == PaymentStatusSuccess
}

func (ps PaymentStatus) IsFinal() bool {
	return ps == PaymentStatusFailed || ps == PaymentStatusSuccess
}

// Submission is one simulated payment submission.
type Submission struct {
	ID          string        `json:"id"`
	FormID      string        `json:"form_id"`
	Status      PaymentStatus `json:"status"`
	Message     string        `json:"message,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}
