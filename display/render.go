package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/tzmeta/classify"
	"github.com/teranos/tzmeta/micheline"
	"github.com/teranos/tzmeta/offchain"
	"github.com/teranos/tzmeta/tokens"
	"github.com/teranos/tzmeta/validation"
)

const unknown = "-"

// RenderClassification prints a document summary, the view table and any
// warnings
func RenderClassification(w io.Writer, r classify.Result) error {
	doc := r.Document
	header := [][]string{{"Field", "Value"}}
	if doc != nil {
		header = append(header,
			[]string{"name", deref(doc.Name)},
			[]string{"version", deref(doc.Version)},
			[]string{"interfaces", joinOr(doc.Interfaces)},
			[]string{"views", strconv.Itoa(len(doc.Views))},
		)
	}
	header = append(header, []string{"kind", r.Kind.String()})
	if r.Kind == classify.TokenStandard {
		header = append(header, []string{"tzip-12", validity(r.GloballyValid())})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(header).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)

	if r.Kind != classify.TokenStandard {
		return nil
	}

	rows := [][]string{{"View", "Status", "Parameter", "Return"}}
	for _, v := range r.Views() {
		rows = append(rows, viewRow(v))
	}
	table, err = pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, table)

	if warnings := r.Warnings(); len(warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range warnings {
			pterm.Warning.WithWriter(w).Println(warning)
		}
	}
	return nil
}

func viewRow(v validation.Result) []string {
	row := []string{v.Name, v.Kind.String(), unknown, unknown}
	switch v.Kind {
	case validation.Valid, validation.Invalid:
		row[2] = typeStatus(v.Parameter)
		row[3] = typeStatus(v.Return)
	}
	return row
}

func typeStatus(s validation.TypeStatus) string {
	if s.Found != nil {
		return s.Kind.String() + ": " + micheline.Render(*s.Found)
	}
	return s.Kind.String()
}

// RenderTokens prints one row per token record. Field failures show up as
// "error: ..." in their column.
func RenderTokens(w io.Writer, records []tokens.Record) error {
	if len(records) == 0 {
		pterm.Info.WithWriter(w).Println("Contract has no tokens")
		return nil
	}

	rows := [][]string{{"Token", "Symbol", "Name", "Decimals", "Total supply", "Extras"}}
	for _, rec := range records {
		row := []string{rec.TokenID.String(), unknown, unknown, unknown, unknown, unknown}
		if rec.MetadataErr != nil {
			row[1] = "error: " + rec.MetadataErr.Message
		} else {
			row[1] = deref(rec.Symbol)
			row[2] = deref(rec.Name)
			if rec.Decimals != nil {
				row[3] = strconv.Itoa(*rec.Decimals)
			}
			if len(rec.Extras) > 0 {
				extras := make([]string, len(rec.Extras))
				for i, kv := range rec.Extras {
					extras[i] = kv.Key + "=" + kv.Value
				}
				row[5] = strings.Join(extras, ", ")
			}
		}
		switch {
		case rec.SupplyErr != nil:
			row[4] = "error: " + rec.SupplyErr.Message
		case rec.TotalSupply != nil:
			row[4] = rec.TotalSupply.Display
		}
		rows = append(rows, row)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)
	return nil
}

// RenderOutcome prints a view call result and the storage it ran against
func RenderOutcome(w io.Writer, view string, out offchain.Outcome) error {
	pterm.Success.WithWriter(w).Printf("%s returned\n", view)
	fmt.Fprintln(w, micheline.Render(out.Result))
	if out.Storage.Kind != micheline.KindInt || out.Storage.Int != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, pterm.Gray("storage:"))
		fmt.Fprintln(w, micheline.Render(out.Storage))
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return unknown
	}
	return *s
}

func joinOr(items []string) string {
	if len(items) == 0 {
		return unknown
	}
	return strings.Join(items, ", ")
}

func validity(ok bool) string {
	if ok {
		return "valid"
	}
	return "not valid"
}
