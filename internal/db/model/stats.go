package model

const (
	DashboardStatsCollection = "dashboard_stats"
	WalletStatsCollection    = "wallet_stats"

	DashboardStatsID = "dashboard_stats"
)

type SourceStats struct {
	TotalStake     float64 `bson:"total_stake" json:"total_stake"`
	TotalUnstake   float64 `bson:"total_unstake" json:"total_unstake"`
	TotalFinalize  float64 `bson:"total_finalize" json:"total_finalize"`
	NetStaked      float64 `bson:"net_staked" json:"net_staked"`
	OperationCount int     `bson:"operation_count" json:"operation_count"`
}

// DashboardStatsDocument is the summary of the last successful load.
// Amounts are in display units, timestamps are unix seconds.
type DashboardStatsDocument struct {
	ID              string      `bson:"_id" json:"-"` // Always "dashboard_stats"
	Bakery          SourceStats `bson:"bakery" json:"bakery"`
	Proxy           SourceStats `bson:"proxy" json:"proxy"`
	ProxyWallets    int         `bson:"proxy_wallets" json:"proxy_wallets"`
	HolderCount     int         `bson:"holder_count" json:"holder_count"`
	HeldSupply      float64     `bson:"held_supply" json:"held_supply"`
	LastOperationAt int64       `bson:"last_operation_at" json:"last_operation_at"`
	LastUpdated     int64       `bson:"last_updated" json:"last_updated"`
}

// WalletStatsDocument is one row of the proxy wallet leaderboard
type WalletStatsDocument struct {
	Address        string  `bson:"_id"`
	TotalDeposited float64 `bson:"total_deposited"`
	TotalWithdrawn float64 `bson:"total_withdrawn"`
	TotalFinalized float64 `bson:"total_finalized"`
	DepositCount   int     `bson:"deposit_count"`
	WithdrawCount  int     `bson:"withdraw_count"`
	FinalizeCount  int     `bson:"finalize_count"`
	NetPosition    float64 `bson:"net_position"`
	CurrentBalance float64 `bson:"current_balance"`
	FirstActivity  int64   `bson:"first_activity"`
	LastActivity   int64   `bson:"last_activity"`
	Rank           int     `bson:"rank"`
}
