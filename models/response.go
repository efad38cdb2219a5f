package models

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FormResponse is returned by every payment form endpoint so the page can
// redraw inputs and the submit button from a single payload.
type FormResponse struct {
	State        PaymentFormState `json:"state"`
	Validation   FormValidation   `json:"validation"`
	Feedback     *FieldFeedback   `json:"feedback,omitempty"`
	Prevented    bool             `json:"prevented,omitempty"`
	SubmissionID string           `json:"submission_id,omitempty"`
}

type SubmissionResponse struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	StatusURL    string `json:"status_url"`
}
