package models

// Conversation maps a (sender, recipient) phone pair to a chat thread and the
// hardware slot the traffic arrived on. At most one row exists per pair.
type Conversation struct {
	ID             int64   `json:"id"`
	SenderPhone    string  `json:"senderPhone"`
	RecipientPhone string  `json:"recipientPhone"`
	BankID         string  `json:"bankId"`
	SimPort        string  `json:"simPort"`
	ThreadRef      *string `json:"threadRef"`
	ICCID          *string `json:"iccid"`
	LastActivity   int64   `json:"lastActivity"`
}

// Message is one entry in a conversation's append-only log.
type Message struct {
	ID             int64   `json:"id"`
	ConversationID int64   `json:"conversationId"`
	Direction      string  `json:"direction"` // "inbound" or "outbound"
	Content        string  `json:"content"`
	SentBy         *string `json:"sentBy"` // chat user, outbound only
	Status         string  `json:"status"`
	CreatedAt      int64   `json:"createdAt"`
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// BlockedNumber is a phone number gated out of routing entirely.
type BlockedNumber struct {
	Phone     string  `json:"phone"`
	BlockedBy string  `json:"blockedBy"`
	Reason    *string `json:"reason"`
	CreatedAt int64   `json:"createdAt"`
}
