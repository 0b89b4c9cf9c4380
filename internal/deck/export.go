package deck

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVRow is one parsed line of a deck CSV.
type CSVRow struct {
	Type     SlotType
	Number   int
	CardName string
}

// WriteCSV writes "Slot Type,Slot Number,Card Name" rows in export order.
// Card names are always quoted.
func WriteCSV(w io.Writer, entries []Entry) error {
	sorted := append([]Entry(nil), entries...)
	SortForExport(sorted)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("Slot Type,Slot Number,Card Name\n"); err != nil {
		return err
	}
	for _, e := range sorted {
		name := strings.ReplaceAll(e.Card.Name, `"`, `""`)
		if _, err := fmt.Fprintf(bw, "%s,%d,\"%s\"\n", e.Type, e.Number, name); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCSV parses a deck CSV. A first line mentioning "slot" or "card" is
// treated as a header. Rows with fewer than three fields or an unknown slot
// type are skipped; a bad slot number reads as 0.
func ReadCSV(r io.Reader) ([]CSVRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}
	if len(records) > 0 {
		first := strings.ToLower(strings.Join(records[0], ","))
		if strings.Contains(first, "slot") || strings.Contains(first, "card") {
			records = records[1:]
		}
	}

	var out []CSVRow
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		t, ok := ParseSlotType(rec[0])
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			n = 0
		}
		name := strings.TrimSpace(rec[2])
		if name == "" {
			continue
		}
		out = append(out, CSVRow{Type: t, Number: n, CardName: name})
	}
	return out, nil
}

// ExportText renders a plain text list: a "# name" title line, then one
// "SLOT n: Card" line per filled slot in display order.
func ExportText(d Deck, entries []Entry) string {
	sorted := append([]Entry(nil), entries...)
	SortForDisplay(sorted)

	lines := []string{}
	if d.Name != "" {
		lines = append(lines, "# "+d.Name)
	}
	if d.Spectacle != "" {
		lines = append(lines, "Spectacle: "+string(d.Spectacle))
	}
	for _, e := range sorted {
		label := string(e.Type)
		if e.Type != SlotEntrance && e.Type != SlotCompetitor {
			label += " " + strconv.Itoa(e.Number)
		}
		lines = append(lines, label+": "+e.Card.Name)
	}
	return strings.Join(lines, "\n")
}
