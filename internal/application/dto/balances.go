package dto

type BalanceSnapshot struct {
	UserID                string `json:"user_id"`
	CreditedTotalMinor    int64  `json:"credited_total_minor"`
	ConsumedTotalMinor    int64  `json:"consumed_total_minor"`
	AvailableBalanceMinor int64  `json:"available_balance_minor"`
}

type GetBalanceCommand struct {
	UserID string
}

type CreditBalanceCommand struct {
	UserID      string
	AmountMinor int64
	SourceRef   string
}

type CreditBalanceOutput struct {
	Applied               bool
	AvailableBalanceMinor int64
}

type DebitBalanceCommand struct {
	UserID      string
	AmountMinor int64
}

type DebitBalanceOutput struct {
	AvailableBalanceMinor int64
}
