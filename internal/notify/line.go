package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// LineNotifier pushes notifications to a single LINE user.
type LineNotifier struct {
	bot    *messaging_api.MessagingApiAPI
	userID string
}

func NewLineNotifier(channelToken, userID string, options ...messaging_api.MessagingApiAPIOption) (*LineNotifier, error) {
	bot, err := messaging_api.NewMessagingApiAPI(channelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE bot client: %w", err)
	}
	return &LineNotifier{bot: bot, userID: userID}, nil
}

func (n *LineNotifier) Send(_ context.Context, note Notification) error {
	message := &messaging_api.TextMessage{
		Text: fmt.Sprintf("🔔 %s\n%s", note.Title, note.Body),
	}

	_, err := n.bot.PushMessage(
		&messaging_api.PushMessageRequest{
			To:       n.userID,
			Messages: []messaging_api.MessageInterface{message},
		},
		uuid.New().String(),
	)
	if err != nil {
		return fmt.Errorf("failed to push LINE message: %w", err)
	}
	return nil
}
