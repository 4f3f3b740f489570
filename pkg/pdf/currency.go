package pdf

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatAmount 按币种格式化金额（en-US习惯，带币种符号）；
// 无法识别的币种代码退化为 "CODE 12.34"
func FormatAmount(code string, amount float64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, amount)
	}
	return currencyPrinter.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}
