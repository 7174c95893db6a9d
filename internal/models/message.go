package models

import "time"

type MessageType string

const (
	MessageText       MessageType = "text"
	MessageVideoOffer MessageType = "video-offer"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	return t == MessageText || t == MessageVideoOffer
}

// VideoOffer is a session description as produced by a WebRTC peer.
type VideoOffer struct {
	Type string `bson:"type" json:"type"`
	SDP  string `bson:"sdp" json:"sdp"`
}

type Message struct {
	ID         string      `bson:"_id" json:"id"`
	SenderID   string      `bson:"senderId" json:"senderId"`
	ReceiverID string      `bson:"receiverId" json:"receiverId"`
	Content    string      `bson:"content" json:"content"`
	Type       MessageType `bson:"type" json:"type"`
	VideoData  *VideoOffer `bson:"videoData,omitempty" json:"videoData,omitempty"`
	CreatedAt  time.Time   `bson:"createdAt" json:"createdAt"`
	// Seq preserves append order where timestamps collide.
	Seq int64 `bson:"seq" json:"-"`
}

// Between reports whether m belongs to the conversation of a and b.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
