// Package testutil builds block explorer records with random identifiers for tests.
package testutil

import (
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

// RandomOperationHash returns a string shaped like an operation hash.
func RandomOperationHash() string {
	return "oo" + gofakeit.LetterN(49)
}

// RandomAddress returns a string shaped like an implicit account address.
func RandomAddress() string {
	return "tz1" + gofakeit.LetterN(33)
}

// Day returns midnight UTC of the given date plus the offset.
func Day(year int, month time.Month, day int, offset time.Duration) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Add(offset)
}

func StakingOperation(action string, amount int64, at time.Time) tzktclient.StakingOperation {
	return tzktclient.StakingOperation{
		ID:        gofakeit.Int64(),
		Hash:      RandomOperationHash(),
		Timestamp: at,
		Action:    action,
		Amount:    amount,
		Status:    "applied",
	}
}

func ProxyTransaction(entrypoint string, amount int64, sender string, at time.Time) tzktclient.Transaction {
	return tzktclient.Transaction{
		ID:        gofakeit.Int64(),
		Hash:      RandomOperationHash(),
		Counter:   int64(gofakeit.IntRange(1, 1_000_000)),
		Timestamp: at,
		Amount:    amount,
		Sender:    &tzktclient.Account{Address: sender},
		Parameter: &tzktclient.Parameter{Entrypoint: entrypoint},
		Status:    "applied",
	}
}

// WithdrawalRequest builds a request_withdrawal call whose parameter is the
// bare derivative token amount.
func WithdrawalRequest(tokenAmount int64, sender string, at time.Time) tzktclient.Transaction {
	tx := ProxyTransaction("request_withdrawal", 0, sender, at)
	tx.Parameter.Value = valuetree.String(strconv.FormatInt(tokenAmount, 10))
	return tx
}

// QueueEntry is one withdrawal queue record of the proxy contract storage.
func QueueEntry(baseAmount, tokenAmount int64) valuetree.Node {
	return valuetree.Object(
		"xtz_amount", valuetree.String(strconv.FormatInt(baseAmount, 10)),
		"token_amount", valuetree.String(strconv.FormatInt(tokenAmount, 10)),
	)
}

// TransactionDetail wraps the given queue entries into a detail response with
// the entries stored under storage.withdrawal_queue.
func TransactionDetail(entries ...valuetree.Node) valuetree.Node {
	return valuetree.Array(valuetree.Object(
		"type", valuetree.String("transaction"),
		"storage", valuetree.Object(
			"withdrawal_queue", valuetree.Array(entries...),
		),
	))
}
