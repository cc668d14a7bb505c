package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// Message an inbound spoke action, already authenticated and decoded by the
// bridge transport. The payee worker consumes rows in ID order.
type Message struct {
	ID          uint64     `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID     string     `sql:"size:36;unique_index:idx_messages_trace" json:"trace_id"`
	SourceChain uint64     `json:"source_chain"`
	AccountID   string     `sql:"size:36;index:idx_messages_account" json:"account_id"`
	Action      ActionType `json:"action"`
	Payload     []byte     `sql:"type:blob" json:"payload"`
	CreatedAt   time.Time  `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IMessageStore inbound message store interface
type IMessageStore interface {
	Create(ctx context.Context, tx *db.DB, message *Message) error
	List(ctx context.Context, fromID uint64, limit int) ([]*Message, error)
}
