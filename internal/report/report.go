// Package report renders a scan report for humans or machines.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/maxset"
)

type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatTable:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

const (
	labelMaxScore = "Max different letters count"
	labelTotal    = "Total words in file"
	labelDistinct = "Total different words with max different letters count"
)

// Write renders rep to w in the given format.
func Write(w io.Writer, rep maxset.Report, format Format) error {
	switch format {
	case FormatText, "":
		return writeText(w, rep)
	case FormatJSON:
		return writeJSON(w, rep)
	case FormatTable:
		return writeTable(w, rep)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, rep maxset.Report) error {
	bw := bufio.NewWriter(w)
	for _, rec := range rep.Records {
		fmt.Fprintf(bw, "> %d word(s)  %s\n", rec.Count, rec.Word)
	}
	fmt.Fprintf(bw, "%s: %d\n", labelMaxScore, rep.MaxScore)
	fmt.Fprintf(bw, "%s: %d\n", labelTotal, rep.TotalWords)
	fmt.Fprintf(bw, "%s: %d\n", labelDistinct, rep.Distinct)
	return bw.Flush()
}

func writeJSON(w io.Writer, rep maxset.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, rep maxset.Report) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Count", "Word"})
	for _, rec := range rep.Records {
		tw.AppendRow(table.Row{strconv.Itoa(rec.Count), rec.Word})
	}
	tw.AppendFooter(table.Row{strconv.Itoa(rep.MaxScore), labelMaxScore})
	tw.AppendFooter(table.Row{strconv.FormatInt(rep.TotalWords, 10), labelTotal})
	tw.AppendFooter(table.Row{strconv.Itoa(rep.Distinct), labelDistinct})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignFooter: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignFooter: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	if _, err := io.WriteString(w, tw.Render()+"\n"); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}
