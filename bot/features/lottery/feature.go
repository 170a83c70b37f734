package lottery

import (
	"lotto/service"
)

const (
	CommandPlay    = "lotto"
	CommandHelp    = "lotto-help"
	CommandHistory = "lotto-history"

	historyLimit = 5
)

type Feature struct {
	lotteryService service.LotteryService
	currencyName   string
}

func New(lotteryService service.LotteryService, currencyName string) *Feature {
	if currencyName == "" {
		currencyName = "coins"
	}
	return &Feature{
		lotteryService: lotteryService,
		currencyName:   currencyName,
	}
}
