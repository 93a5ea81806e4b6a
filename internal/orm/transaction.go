package orm

import (
	"database/sql"
)

// TransactionOptions configures transaction behavior
type TransactionOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// DefaultTransactionOptions returns the driver defaults
func DefaultTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		Isolation: sql.LevelDefault,
		ReadOnly:  false,
	}
}

// ReadOnlyTransactionOptions is used for consistent multi-statement reads
func ReadOnlyTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	}
}

// ToTxOptions converts TransactionOptions to sql.TxOptions
func (o *TransactionOptions) ToTxOptions() *sql.TxOptions {
	if o == nil {
		return nil
	}
	return &sql.TxOptions{
		Isolation: o.Isolation,
		ReadOnly:  o.ReadOnly,
	}
}
