package models

type EventType string

const (
	EventInput   EventType = "input"
	EventChange  EventType = "change"
	EventBlur    EventType = "blur"
	EventFocus   EventType = "focus"
	EventKeydown EventType = "keydown"
)

// FormEvent is a single UI notification forwarded by the payment page.
type FormEvent struct {
	Type  EventType `json:"type" validate:"required,oneof=input change blur focus keydown"`
	Field FormField `json:"field" validate:"omitempty,oneof=card_number card_name security_code expiry terms"`
	Value string    `json:"value"`
	Key   string    `json:"key" validate:"required_if=Type keydown"`
	Ctrl  bool      `json:"ctrl"`
}
