package chat

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreate(ctx context.Context, customerID, boosterID int, orderID string) (*Chat, error) {
	ch := &Chat{}
	err := r.db.GetContext(ctx, ch,
		`SELECT id, customer_id, booster_id, order_id, created_at
		 FROM chats
		 WHERE customer_id = $1 AND booster_id = $2 AND order_id = $3`,
		customerID, boosterID, orderID,
	)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO chats (id, customer_id, booster_id, order_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (customer_id, booster_id, order_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		 RETURNING id, customer_id, booster_id, order_id, created_at`,
		uuid.NewString(), customerID, boosterID, orderID,
	).StructScan(ch)
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func (r *repository) GetByID(ctx context.Context, chatID string) (*Chat, error) {
	var ch Chat
	err := r.db.GetContext(ctx, &ch,
		`SELECT id, customer_id, booster_id, order_id, created_at
		 FROM chats
		 WHERE id = $1`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *repository) ListForUser(ctx context.Context, userID int) ([]Chat, error) {
	var chats []Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT id, customer_id, booster_id, order_id, created_at
		 FROM chats
		 WHERE customer_id = $1 OR booster_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *repository) PostMessage(ctx context.Context, chatID string, senderID int, body string) (*Message, error) {
	var m Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, body, is_system)
		 VALUES ($1, $2, $3, $4, false)
		 RETURNING id, chat_id, sender_id, body, is_system, created_at`,
		uuid.NewString(), chatID, senderID, body,
	).StructScan(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) PostSystemMessage(ctx context.Context, chatID, body string) (*Message, error) {
	var m Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, body, is_system)
		 VALUES ($1, $2, NULL, $3, true)
		 RETURNING id, chat_id, sender_id, body, is_system, created_at`,
		uuid.NewString(), chatID, body,
	).StructScan(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListMessages(ctx context.Context, chatID string, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}

	var msgs []Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, chat_id, sender_id, body, is_system, created_at
		 FROM messages
		 WHERE chat_id = $1
		 ORDER BY created_at ASC
		 LIMIT $2 OFFSET $3`,
		chatID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
