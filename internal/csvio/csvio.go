// Package csvio exports collections as CSV and imports transactions
// back. Import is tolerant: rows that fail to parse are skipped and
// counted rather than aborting the batch.
package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"finbook/internal/core"
	"finbook/internal/store"
)

var transactionHeader = []string{
	"id", "ref", "owner", "kind", "amount", "category", "date", "description", "created_at", "updated_at",
}

var userHeader = []string{"username", "currency", "created_at"}

// ExportUsers writes every registered user, without password hashes.
func ExportUsers(ctx context.Context, s store.UserStore, w io.Writer) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(userHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, u := range users {
		rec := []string{u.Username, u.Currency, u.CreatedAt.Format(time.RFC3339)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write user row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportTransactions writes one owner's transactions in insertion
// order. Amounts are rendered as decimal strings, dates as ISO days.
func ExportTransactions(ctx context.Context, s store.TransactionStore, owner string, w io.Writer) error {
	txns, err := s.ListTransactions(ctx, owner)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txns {
		rec := []string{
			strconv.FormatInt(t.ID, 10),
			t.Ref,
			t.Owner,
			string(t.Kind),
			t.Amount.String(),
			t.Category,
			t.Date.ISO(),
			t.Description,
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write transaction row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportResult summarizes a transaction import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportTransactions appends transactions for one owner from CSV with
// the export header layout. The owner column in the file is ignored;
// every row lands under the given owner with a fresh sequential ID and
// reference. Bad rows are skipped and counted.
func ImportTransactions(ctx context.Context, s store.TransactionStore, owner string, r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"kind", "amount", "category", "date"} {
		if _, ok := col[required]; !ok {
			return ImportResult{}, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var res ImportResult
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Skipped++
			continue
		}

		t, err := parseRow(owner, row, field)
		if err != nil {
			res.Skipped++
			slog.WarnContext(ctx, "Skipping unparsable CSV row", "error", err)
			continue
		}
		if _, err := s.AppendTransaction(ctx, t); err != nil {
			return res, fmt.Errorf("append imported transaction: %w", err)
		}
		res.Imported++
	}
	return res, nil
}

func parseRow(owner string, row []string, field func([]string, string) string) (core.Transaction, error) {
	kind, err := core.ParseKind(field(row, "kind"))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseMoney(field(row, "amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(field(row, "date"))
	if err != nil {
		return core.Transaction{}, err
	}

	now := time.Now()
	t := core.Transaction{
		Ref:         core.NewTransactionRef(),
		Owner:       owner,
		Kind:        kind,
		Amount:      amount,
		Category:    core.NormalizeCategory(field(row, "category")),
		Date:        date,
		Description: field(row, "description"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return t, t.Validate()
}
