package chat

import (
	"database/sql"
	"time"
)

type Chat struct {
	ID         string    `db:"id" json:"id"`
	CustomerID int       `db:"customer_id" json:"customer_id"`
	BoosterID  int       `db:"booster_id" json:"booster_id"`
	OrderID    string    `db:"order_id" json:"order_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Message struct {
	ID        string        `db:"id" json:"id"`
	ChatID    string        `db:"chat_id" json:"chat_id"`
	SenderID  sql.NullInt64 `db:"sender_id" json:"sender_id,omitempty"`
	Body      string        `db:"body" json:"body"`
	IsSystem  bool          `db:"is_system" json:"is_system"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required,max=4000"`
}
