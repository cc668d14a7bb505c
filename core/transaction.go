package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

const (
	// TransactionKeyPool pool id :uint64
	TransactionKeyPool = "pool_id"
	// TransactionKeyLoan loan id :string
	TransactionKeyLoan = "loan_id"
	// TransactionKeyAmount amount :decimal
	TransactionKeyAmount = "amount"
	// TransactionKeyReceiptAmount receipt amount :decimal
	TransactionKeyReceiptAmount = "receipt_amount"
	// TransactionKeyInterest interest paid :decimal
	TransactionKeyInterest = "interest"
	// TransactionKeyDepositIndex deposit index :decimal
	TransactionKeyDepositIndex = "deposit_index"
	// TransactionKeyBorrowIndex variable borrow index :decimal
	TransactionKeyBorrowIndex = "borrow_index"
	// TransactionKeyDepositTotal deposit total :decimal
	TransactionKeyDepositTotal = "deposit_total"
	// TransactionKeyBorrowTotal variable+stable total :decimal
	TransactionKeyBorrowTotal = "borrow_total"
	// TransactionKeyErrorCode error code :int
	TransactionKeyErrorCode = "error_code"
	// TransactionKeySeized seized receipt amount :decimal
	TransactionKeySeized = "seized"
	// TransactionKeyViolator violator loan id :string
	TransactionKeyViolator = "violator"
)

// TransactionExtraData extra data
type TransactionExtraData map[string]interface{}

// NewTransactionExtra new transaction extra instance
func NewTransactionExtra() TransactionExtraData {
	return make(TransactionExtraData)
}

// Put put data
func (t TransactionExtraData) Put(key string, value interface{}) {
	t[key] = value
}

// Format format as []byte by default
func (t TransactionExtraData) Format() []byte {
	bs, e := json.Marshal(t)
	if e != nil {
		return []byte("{}")
	}
	return bs
}

// TransactionStatus audit row outcome
type TransactionStatus int

const (
	// TransactionStatusComplete action applied
	TransactionStatusComplete TransactionStatus = iota + 1
	// TransactionStatusAbort action rejected, state unchanged
	TransactionStatusAbort
)

// Transaction audit row appended for every handled action, complete or
// aborted. Data carries post-state for off-chain indexing.
type Transaction struct {
	ID        uint64            `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	Action    ActionType        `json:"action,omitempty"`
	TraceID   string            `sql:"size:36;unique_index:idx_transactions_trace" json:"trace_id,omitempty"`
	AccountID string            `sql:"size:36;index:idx_transactions_account" json:"account_id,omitempty"`
	LoanID    string            `sql:"size:36;index:idx_transactions_loan" json:"loan_id,omitempty"`
	PoolID    uint64            `sql:"index:idx_transactions_pool" json:"pool_id,omitempty"`
	Amount    decimal.Decimal   `sql:"type:decimal(32,16)" json:"amount,omitempty"`
	Data      types.JSONText    `sql:"type:TEXT" json:"data,omitempty"`
	Status    TransactionStatus `sql:"default:1" json:"status,omitempty"`
	CreatedAt time.Time         `sql:"default:CURRENT_TIMESTAMP;index:idx_transactions_created" json:"created_at,omitempty"`
}

// SetExtraData attach extra
func (t *Transaction) SetExtraData(extra TransactionExtraData) {
	data := []byte("{}")
	if extra != nil {
		data = extra.Format()
	}
	t.Data = data
}

// UnmarshalExtraData decode extra
func (t *Transaction) UnmarshalExtraData(v interface{}) error {
	return json.Unmarshal(t.Data, v)
}

// ITransactionStore transaction store interface
type ITransactionStore interface {
	Create(ctx context.Context, tx *db.DB, transaction *Transaction) error
	FindByTraceID(ctx context.Context, traceID string) (*Transaction, error)
	List(ctx context.Context, fromID uint64, limit int) ([]*Transaction, error)
	ListByLoan(ctx context.Context, loanID string, limit int) ([]*Transaction, error)
}
