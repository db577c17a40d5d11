package tzktclient

import (
	"time"

	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

type Account struct {
	Address string `json:"address"`
}

// StakingOperation is one entry of the baker's staking operation feed.
// Amount is in the base token's smallest unit.
type StakingOperation struct {
	ID        int64     `json:"id"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Amount    int64     `json:"amount"`
	Sender    *Account  `json:"sender,omitempty"`
	Status    string    `json:"status"`
}

type Parameter struct {
	Entrypoint string         `json:"entrypoint"`
	Value      valuetree.Node `json:"value"`
}

// Transaction is one call to the liquid staking proxy contract.
// Amount is the base token transferred with the call, in smallest units.
type Transaction struct {
	ID        int64      `json:"id"`
	Hash      string     `json:"hash"`
	Counter   int64      `json:"counter"`
	Timestamp time.Time  `json:"timestamp"`
	Amount    int64      `json:"amount"`
	Sender    *Account   `json:"sender,omitempty"`
	Target    *Account   `json:"target,omitempty"`
	Parameter *Parameter `json:"parameter,omitempty"`
	Status    string     `json:"status"`
}

func (tx Transaction) Entrypoint() string {
	if tx.Parameter == nil {
		return ""
	}
	return tx.Parameter.Entrypoint
}

func (tx Transaction) SenderAddress() string {
	if tx.Sender == nil {
		return ""
	}
	return tx.Sender.Address
}

// TokenBalance is one holder of the derivative token. Balance is a decimal
// string in the token's smallest unit.
type TokenBalance struct {
	Account *Account `json:"account"`
	Balance string   `json:"balance"`
}
