package utils

import (
	"encoding/csv"
	"io"
	"time"

	"tradejournal/internal/domain"
)

// WriteTransactionsToCSV writes one row per transaction. symbols maps stock
// ids to tickers; unknown ids leave the symbol column empty.
func WriteTransactionsToCSV(w io.Writer, txs []*domain.Transaction, symbols map[string]string) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"transaction_date", "symbol", "type", "quantity", "price", "amount", "comment", "transaction_id", "stock_id"}); err != nil {
		return err
	}

	for _, t := range txs {
		if err := writer.Write([]string{
			t.TransactionDate.UTC().Format(time.RFC3339),
			symbols[t.StockID],
			string(t.Type),
			t.Quantity.String(),
			t.Price.String(),
			t.Amount().String(),
			t.Comment,
			t.ID,
			t.StockID,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
