package cards

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidCSV marks an upload that could not be parsed as a collection CSV.
var ErrInvalidCSV = errors.New("invalid collection csv")

// collectionHeader is the column layout written by WriteCollectionCSV.
var collectionHeader = []string{"Name", "Quantity", "Card Type", "Deck #", "Attack Type", "Play Order", "Division"}

// CollectionRow is one parsed line of a collection CSV.
type CollectionRow struct {
	Name     string
	Quantity int
}

// escapeName keeps commas out of the name column, matching the website export.
func escapeName(name string) string {
	return strings.ReplaceAll(name, ",", "--")
}

func unescapeName(name string) string {
	return strings.ReplaceAll(name, "--", ",")
}

// WriteCollectionCSV writes held cards in the collection export format.
func WriteCollectionCSV(w io.Writer, held []WithQuantity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(collectionHeader); err != nil {
		return err
	}
	for _, h := range held {
		c := h.Card
		deckNum := ""
		if c.DeckCardNumber != nil {
			deckNum = strconv.Itoa(*c.DeckCardNumber)
		}
		row := []string{
			escapeName(c.Name),
			strconv.Itoa(h.Quantity),
			c.ShortType(),
			deckNum,
			c.AtkType,
			c.PlayOrder,
			c.Division,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isCollectionHeader(fields []string) bool {
	line := strings.ToLower(strings.Join(fields, ","))
	return strings.Contains(line, "name") &&
		(strings.Contains(line, "quantity") ||
			strings.Contains(line, "card_type") ||
			strings.Contains(line, "card type"))
}

// ReadCollectionCSV parses either the full export format or a bare
// "Name[,Quantity]" list. Rows with a blank name are skipped and an
// unparseable quantity counts as 1.
func ReadCollectionCSV(r io.Reader) ([]CollectionRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidCSV)
	}

	nameCol, qtyCol := 0, -1
	if isCollectionHeader(records[0]) {
		nameCol = -1
		for i, h := range records[0] {
			h = strings.ToLower(strings.Trim(h, `" `))
			if nameCol < 0 && strings.Contains(h, "name") {
				nameCol = i
			}
			if qtyCol < 0 && strings.Contains(h, "quantity") {
				qtyCol = i
			}
		}
		if nameCol < 0 {
			nameCol = 0
		}
		records = records[1:]
	}

	var out []CollectionRow
	for _, rec := range records {
		if nameCol >= len(rec) {
			continue
		}
		name := unescapeName(strings.TrimSpace(rec[nameCol]))
		if name == "" {
			continue
		}
		qty := 1
		if qtyCol >= 0 && qtyCol < len(rec) {
			if v, err := strconv.Atoi(strings.TrimSpace(rec[qtyCol])); err == nil {
				qty = v
			}
		}
		out = append(out, CollectionRow{Name: name, Quantity: qty})
	}
	return out, nil
}
