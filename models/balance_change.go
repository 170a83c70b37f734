package models

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeLottoStake       TransactionType = "lotto_stake"
	TransactionTypeLottoPayout      TransactionType = "lotto_payout"
	TransactionTypeLottoTransferIn  TransactionType = "lotto_transfer_in"
	TransactionTypeLottoTransferOut TransactionType = "lotto_transfer_out"
)
