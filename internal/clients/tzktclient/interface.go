package tzktclient

import (
	"context"

	"github.com/stakeflow/stakeflow-indexer/internal/utils/valuetree"
)

type TzktInterface interface {
	// GetBakerOperations returns every stake, unstake and finalize operation of the configured baker.
	GetBakerOperations(ctx context.Context) ([]StakingOperation, error)
	// GetProxyTransactions returns every applied deposit, request_withdrawal and
	// finalize_withdrawal call of the configured proxy contract.
	GetProxyTransactions(ctx context.Context) ([]Transaction, error)
	// GetTransactionDetail returns the full operation group entry identified by
	// hash and counter, post-execution storage included.
	GetTransactionDetail(ctx context.Context, hash string, counter int64) (valuetree.Node, error)
	// GetTokenHolders returns all current holders of the derivative token.
	GetTokenHolders(ctx context.Context) ([]TokenBalance, error)
}
