package entities

import "math/big"

// PoolState is the singleton staking-pool ledger: the address the external
// token contract holds the pool balance under, the monotonic poll counter,
// the share supply and the escrowed proposal deposits. Escrowed deposits are
// never part of the stake-weight pool.
type PoolState struct {
	PoolAddress  string
	PollCount    uint64
	TotalShare   uint64
	TotalDeposit uint64
}

// TokenManager is the per-staker ledger record: the staker's share of the
// pool plus a non-owning cross-reference of vote locks by poll id. The owning
// VoterInfo copy lives with the poll; this map exists for the staker-facing
// view and for opportunistic cleanup during withdraw.
type TokenManager struct {
	Share         uint64
	LockedBalance map[uint64]VoterInfo
}

func NewTokenManager() TokenManager {
	return TokenManager{LockedBalance: make(map[uint64]VoterInfo)}
}

// MulDiv returns a*b/c floored. The intermediate product is computed in
// arbitrary precision so amount*total_share scale values cannot overflow.
func MulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	x := new(big.Int).SetUint64(a)
	x.Mul(x, new(big.Int).SetUint64(b))
	x.Div(x, new(big.Int).SetUint64(c))
	return x.Uint64()
}

// SharesForDeposit converts an incoming token amount to newly minted shares.
// totalBalance must be the pool balance before the deposit was reflected.
func SharesForDeposit(amount, totalShare, totalBalance uint64) uint64 {
	if totalShare == 0 || totalBalance == 0 {
		return amount
	}
	return MulDiv(amount, totalShare, totalBalance)
}

// TokensForShare quotes a share holding in token units, floored.
func TokensForShare(share, totalBalance, totalShare uint64) uint64 {
	if totalShare == 0 {
		return 0
	}
	return MulDiv(share, totalBalance, totalShare)
}

// RatioReached reports num/den >= ratio; a zero denominator never reaches.
func RatioReached(num, den uint64, ratio float64) bool {
	if den == 0 {
		return false
	}
	return float64(num)/float64(den) >= ratio
}

// RatioExceeded reports num/den > ratio (strict, used for the pass threshold).
func RatioExceeded(num, den uint64, ratio float64) bool {
	if den == 0 {
		return false
	}
	return float64(num)/float64(den) > ratio
}
