package models

// OutboundMessageRequest is a notification to deliver over WhatsApp. An empty
// To targets the configured report recipient.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
