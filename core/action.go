package core

// ActionType spoke action type
type ActionType int

const (
	// ActionTypeCreateLoan create a user loan
	ActionTypeCreateLoan ActionType = iota + 1
	// ActionTypeDeleteLoan delete an empty user loan
	ActionTypeDeleteLoan
	// ActionTypeDeposit deposit collateral
	ActionTypeDeposit
	// ActionTypeWithdraw withdraw collateral
	ActionTypeWithdraw
	// ActionTypeBorrow open or increase a borrow
	ActionTypeBorrow
	// ActionTypeRepay repay a borrow
	ActionTypeRepay
	// ActionTypeRepayWithCollateral repay from same-pool collateral
	ActionTypeRepayWithCollateral
	// ActionTypeLiquidate liquidate an under-collateralized loan
	ActionTypeLiquidate
	// ActionTypeSwitchBorrowType flip a borrow between stable and variable
	ActionTypeSwitchBorrowType
	// ActionTypeRebalanceUp push a stale stable rate up to the offer rate
	ActionTypeRebalanceUp
	// ActionTypeRebalanceDown pull an expensive stable rate down
	ActionTypeRebalanceDown
)

func (a ActionType) String() string {
	switch a {
	case ActionTypeCreateLoan:
		return "create_loan"
	case ActionTypeDeleteLoan:
		return "delete_loan"
	case ActionTypeDeposit:
		return "deposit"
	case ActionTypeWithdraw:
		return "withdraw"
	case ActionTypeBorrow:
		return "borrow"
	case ActionTypeRepay:
		return "repay"
	case ActionTypeRepayWithCollateral:
		return "repay_with_collateral"
	case ActionTypeLiquidate:
		return "liquidate"
	case ActionTypeSwitchBorrowType:
		return "switch_borrow_type"
	case ActionTypeRebalanceUp:
		return "rebalance_up"
	case ActionTypeRebalanceDown:
		return "rebalance_down"
	default:
		return "unknown"
	}
}
