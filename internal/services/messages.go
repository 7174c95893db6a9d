package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

// DefaultVideoOfferContent is the text shown for a video-offer message.
const DefaultVideoOfferContent = "Video call started"

// SendMessage appends a message from sender to receiver. A video offer is
// stored as-is; nothing answers it.
func (s *ClinicService) SendMessage(ctx context.Context, senderID, receiverID, content string, typ models.MessageType, offer *models.VideoOffer) (*models.Message, error) {
	if typ == "" {
		typ = models.MessageText
	}
	if !typ.Valid() {
		return nil, invalid("unknown message type %q", typ)
	}
	if senderID == receiverID {
		return nil, invalid("cannot send a message to yourself")
	}

	content = strings.TrimSpace(content)
	switch typ {
	case models.MessageText:
		if content == "" {
			return nil, invalid("message content is required")
		}
		offer = nil
	case models.MessageVideoOffer:
		if offer == nil || strings.TrimSpace(offer.SDP) == "" {
			return nil, invalid("video offer requires a session description")
		}
		if content == "" {
			content = DefaultVideoOfferContent
		}
	}

	if _, err := s.users.GetByID(ctx, senderID); err != nil {
		return nil, lookupErr("user", senderID, err)
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, lookupErr("user", receiverID, err)
	}

	msg := &models.Message{
		ID:         s.ids.NewID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       typ,
		VideoData:  offer,
		CreatedAt:  s.timestamp(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Conversation returns the messages exchanged by a and b in the order they were sent.
func (s *ClinicService) Conversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	if _, err := s.users.GetByID(ctx, b); err != nil {
		return nil, lookupErr("user", b, err)
	}
	list, err := s.messages.ListBetween(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return list, nil
}
