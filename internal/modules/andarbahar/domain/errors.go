package domain

import "errors"

// Rejection taxonomy. Bet-time rejections are recoverable, the caller may
// retry with corrected input. None of them leave partial side effects.
var (
	ErrInvalidCommand      = errors.New("invalid command for current phase")
	ErrRoundClosed         = errors.New("round is closed for betting")
	ErrAmountOutOfRange    = errors.New("bet amount out of range")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrIllegalDeal         = errors.New("illegal deal")
	ErrSettlementTransient = errors.New("settlement transient failure")
)

// ErrorCode maps a domain error to its wire code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, ErrRoundClosed):
		return "round_closed"
	case errors.Is(err, ErrAmountOutOfRange):
		return "amount_out_of_range"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrIllegalDeal):
		return "illegal_deal"
	case errors.Is(err, ErrSettlementTransient):
		return "settlement_transient_failure"
	default:
		return "internal_error"
	}
}
