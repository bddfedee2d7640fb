package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/meenmo/actus/utils"
)

var header = []string{
	"contract_id", "date", "event_type", "currency",
	"principal", "interest", "fee", "other", "amount", "amount_minor",
}

// WriteCSV writes one row per cash flow, amounts in the currency's precision.
func WriteCSV(w io.Writer, cfs []Cashflow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteCSV: %w", err)
	}
	for _, cf := range cfs {
		ccy := cf.Currency
		row := []string{
			cf.ContractID,
			cf.Date.Format(utils.DateLayout),
			cf.Type.String(),
			ccy,
			Display(cf.Principal, ccy),
			Display(cf.Interest, ccy),
			Display(cf.Fee, ccy),
			Display(cf.Other, ccy),
			Display(cf.Amount(), ccy),
			strconv.FormatInt(MinorUnits(cf.Amount(), ccy), 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: %w", err)
	}
	return nil
}

// WriteTotalsCSV writes one row per currency.
func WriteTotalsCSV(w io.Writer, totals []Totals) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"currency", "count", "principal", "interest", "fee", "other", "net"}); err != nil {
		return fmt.Errorf("WriteTotalsCSV: %w", err)
	}
	for _, t := range totals {
		row := []string{
			t.Currency,
			strconv.Itoa(t.Count),
			Display(t.Principal, t.Currency),
			Display(t.Interest, t.Currency),
			Display(t.Fee, t.Currency),
			Display(t.Other, t.Currency),
			Display(t.Net(), t.Currency),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteTotalsCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteTotalsCSV: %w", err)
	}
	return nil
}
