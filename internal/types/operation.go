package types

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// DateLayout is the calendar-day key used by every day-bucketed series.
const DateLayout = "2006-01-02"

type OperationKind string

const (
	KindStake    OperationKind = "stake"
	KindUnstake  OperationKind = "unstake"
	KindFinalize OperationKind = "finalize"
)

func (k OperationKind) String() string {
	return string(k)
}

// KindFromAction maps a bakery staking action onto an operation kind.
func KindFromAction(action string) (OperationKind, error) {
	switch action {
	case "stake":
		return KindStake, nil
	case "unstake":
		return KindUnstake, nil
	case "finalize":
		return KindFinalize, nil
	default:
		return "", fmt.Errorf("invalid staking action: %s", action)
	}
}

type OperationSource string

const (
	SourceBakery OperationSource = "bakery"
	SourceProxy  OperationSource = "proxy"
)

func (s OperationSource) String() string {
	return string(s)
}

// Operation is the normalized record both feeds are converted into.
// Amount is expressed in display units of the base token.
type Operation struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      OperationKind   `json:"kind"`
	Amount    float64         `json:"amount"`
	Source    OperationSource `json:"source"`
	// Sender is only set for proxy operations.
	Sender string `json:"sender,omitempty"`
}

// Date returns the UTC calendar day of the operation.
func (o Operation) Date() string {
	return o.Timestamp.UTC().Format(DateLayout)
}

// WithdrawalRequest is a proxy request_withdrawal call whose base token payout
// still has to be looked up. DerivativeAmount is in the token's smallest unit.
type WithdrawalRequest struct {
	Hash             string
	Counter          int64
	Timestamp        time.Time
	Sender           string
	DerivativeAmount sdkmath.Int
}
