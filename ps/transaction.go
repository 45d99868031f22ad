package ps

import (
	"fmt"
	"time"
)

// Transaction is one recorded save.
type Transaction struct {
	Id      string
	When    time.Time
	Author  string // "Name <email>" format
	Message string
}

func (transaction Transaction) String() string {
	return fmt.Sprintf("Transaction{Id: %s, When: %s, Author: %s}", transaction.Id, transaction.When, transaction.Author)
}

// Short returns the abbreviated commit id.
func (transaction Transaction) Short() string {
	if len(transaction.Id) > 7 {
		return transaction.Id[:7]
	}
	return transaction.Id
}
