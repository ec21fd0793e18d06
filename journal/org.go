package journal

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

var runOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02") },
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders the run summary followed by its trades.
func (r Run) WriteOrg(w io.Writer, trades []TradeRecord) error {
	if err := runOrg.Execute(w, r); err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}
	_, err := io.WriteString(w, "\n"+FormatTradesOrg(trades))
	return err
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:SYMBOL:      {{.Symbol}}
:START_DATE:  {{date .Start}}
:END_DATE:    {{date .End}}
:BARS:        {{.Bars}}
:START_CASH:  {{.StartCash.StringFixed 2}}
:FINAL_VALUE: {{.FinalValue.StringFixed 2}}
:NET_PL:      {{.NetPL.StringFixed 2}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:REJECTED:    {{.Rejections}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Final Portfolio Value: *{{.FinalValue.StringFixed 2}}*
- Net P/L:               *{{.NetPL.StringFixed 2}}*
- Return:                *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:          *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:              *{{printf "%.2f" .WinRate}}%*
{{- if .OpenPosition}}
- Position still open at end of run
{{- end}}

** Trade Distribution
| Outcome  | Count |
|----------+-------|
| Wins     | {{.Wins}} |
| Losses   | {{.Losses}} |
| Total    | {{.Trades}} |
| Rejected | {{.Rejections}} |
{{- if .Config}}

** Configuration
#+begin_src yaml
{{printf "%s" .Config}}#+end_src
{{- end}}
`

// FormatTradeOrg renders a TradeRecord as an Org-mode block with its facts
// in a PROPERTIES drawer.
func FormatTradeOrg(t TradeRecord) string {
	id := fmt.Sprintf("%s-%d", t.RunID, t.Seq)
	heading := fmt.Sprintf("** Trade %d: %s (%s)", t.Seq, t.Symbol, shortID(t.RunID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	close := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", id))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":SEQ: %d\n", t.Seq))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":QUANTITY: %s\n", t.Quantity.String()))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %s\n", t.EntryPrice.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %s\n", t.ExitPrice.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", close))
	b.WriteString(fmt.Sprintf(":REALIZED_PL: %s\n", t.RealizedPL.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
