package chat

import "context"

type Repository interface {
	// GetOrCreate returns the chat for an order's customer/booster pair,
	// creating it on first use.
	GetOrCreate(ctx context.Context, customerID, boosterID int, orderID string) (*Chat, error)
	GetByID(ctx context.Context, chatID string) (*Chat, error)
	ListForUser(ctx context.Context, userID int) ([]Chat, error)
	PostMessage(ctx context.Context, chatID string, senderID int, body string) (*Message, error)
	PostSystemMessage(ctx context.Context, chatID, body string) (*Message, error)
	ListMessages(ctx context.Context, chatID string, limit, offset int) ([]Message, error)
}
