package models

// OutboundMessageRequest is a manual notification pushed to an operator
// phone.
type OutboundMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message" binding:"required"`
}
