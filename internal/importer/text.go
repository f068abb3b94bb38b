package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/catatkeu/catatkeu/internal/normalize"
	"github.com/catatkeu/catatkeu/internal/txtparser"
	"github.com/catatkeu/catatkeu/internal/types"
)

// Field keys of text export items.
const (
	fieldKind         = "tipe"
	fieldAmount       = "jumlah"
	fieldTerm         = "periode"
	fieldDate         = "tanggal"
	fieldDueDate      = "jatuhTempo"
	fieldNote         = "catatan"
	fieldOdometer     = "kmSaatIni"
	fieldNextOdometer = "kmBerikutnya"
)

// Sections of the text export, in import order.
var (
	sectionDebts = txtparser.Section{Key: "hutang", Markers: []string{"📋 DATA HUTANG"}}
	sectionRecv  = txtparser.Section{Key: "piutang", Markers: []string{"💰 DATA PIUTANG"}}
	sectionInc   = txtparser.Section{Key: "pemasukan", Markers: []string{"💰 DATA PEMASUKAN"}}
	sectionExp   = txtparser.Section{Key: "pengeluaran", Markers: []string{"💸 DATA PENGELUARAN"}}
	sectionMaint = txtparser.Section{Key: "maintenance", Markers: []string{"🔧 DATA MAINTENANCE", "🔧 DATA PERBAIKAN"}}
)

var (
	noteLabel = txtparser.Label{Field: fieldNote, Prefixes: []string{"Catatan"}}
	dateLabel = txtparser.Label{Field: fieldDate, Prefixes: []string{"Tanggal"}}

	debtLabels = []txtparser.Label{
		{Field: fieldKind, Prefixes: []string{"Tipe"}},
		{Field: fieldAmount, Prefixes: []string{"Jumlah", "Total Hutang"}},
		{Field: fieldTerm, Prefixes: []string{"Periode"}, Extract: txtparser.FirstNumber},
		dateLabel,
		noteLabel,
	}
	receivableLabels = []txtparser.Label{
		{Field: fieldAmount, Prefixes: []string{"Jumlah", "Total Piutang"}},
		{Field: fieldDate, Prefixes: []string{"Tanggal", "Tanggal Pinjam"}},
		{Field: fieldDueDate, Prefixes: []string{"Jatuh Tempo"}},
		noteLabel,
	}
	incomeLabels = []txtparser.Label{
		{Field: fieldKind, Prefixes: []string{"Tipe"}},
		{Field: fieldAmount, Prefixes: []string{"Jumlah"}},
		dateLabel,
		noteLabel,
	}
	expenseLabels = []txtparser.Label{
		{Field: fieldAmount, Prefixes: []string{"Jumlah"}},
		dateLabel,
		noteLabel,
	}
	maintenanceLabels = []txtparser.Label{
		dateLabel,
		{Field: fieldOdometer, Prefixes: []string{"KM Saat Ini"}},
		{Field: fieldNextOdometer, Prefixes: []string{"KM Berikutnya"}},
		noteLabel,
	}
)

// sectionTitles lists the title of every known marker; a line holding one of
// them closes the section before it.
func sectionTitles() []string {
	var titles []string
	for _, s := range []txtparser.Section{sectionDebts, sectionRecv, sectionInc, sectionExp, sectionMaint} {
		for _, m := range s.Markers {
			titles = append(titles, txtparser.Title(m))
		}
	}
	return titles
}

// textRun is the state of one text import.
type textRun struct {
	imp    *Importer
	norm   *normalize.Normalizer
	text   string
	stops  []string
	counts types.Counts
}

// ImportText reads a text export from r and imports its sections.
//
// Payment sections are not part of the text export, so no references are
// resolved here; payments only come in through workbooks.
//
// RETURNS:
//   - The inserted record counts.
//   - ErrUnreadableFile (wrapped) when r fails, or the first insert error.
//     Counts are zero whenever an error is returned.
func (imp *Importer) ImportText(ctx context.Context, r io.Reader) (types.Counts, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.Counts{}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	run := &textRun{
		imp:   imp,
		norm:  &normalize.Normalizer{Now: imp.now},
		text:  txtparser.Decode(data),
		stops: sectionTitles(),
	}

	steps := []struct {
		section txtparser.Section
		labels  []txtparser.Label
		insert  func(context.Context, txtparser.Item) error
	}{
		{sectionDebts, debtLabels, run.debt},
		{sectionRecv, receivableLabels, run.receivable},
		{sectionInc, incomeLabels, run.income},
		{sectionExp, expenseLabels, run.expense},
		{sectionMaint, maintenanceLabels, run.maintenance},
	}

	for _, step := range steps {
		body, ok := txtparser.ExtractSection(run.text, run.stops, step.section.Markers...)
		if !ok {
			continue
		}

		items := txtparser.ParseItems(body, step.labels)
		imp.logger.Debug("importing section", "section", step.section.Key, "items", len(items))
		for _, item := range items {
			if normalize.IsAbsent(item.Title) {
				imp.logger.Debug("item skipped", "section", step.section.Key, "line", item.Line, "reason", "empty title")
				continue
			}
			if err := step.insert(ctx, item); err != nil {
				return types.Counts{}, fmt.Errorf("%s item %q: %w", step.section.Key, item.Title, err)
			}
		}
	}

	return run.counts, nil
}

func (r *textRun) debt(ctx context.Context, it txtparser.Item) error {
	d := &types.Debt{
		Name:        it.Title,
		Kind:        textOr(it.Field(fieldKind), r.imp.defaults.DebtKind),
		TotalAmount: normalize.ParseAmount(it.Field(fieldAmount)),
		TermMonths:  int(normalize.IntOr(normalize.ParseNullableInt(it.Field(fieldTerm)), int64(r.imp.defaults.DebtTermMonths))),
		Date:        r.norm.ParseDate(it.Field(fieldDate)),
		Note:        normalize.SanitizeText(it.Field(fieldNote)),
	}
	if _, err := r.imp.store.AddDebt(ctx, d); err != nil {
		return fmt.Errorf("insert hutang: %w", err)
	}
	r.counts.Debts++
	return nil
}

func (r *textRun) receivable(ctx context.Context, it txtparser.Item) error {
	rec := &types.Receivable{
		PersonName:  it.Title,
		TotalAmount: normalize.ParseAmount(it.Field(fieldAmount)),
		Date:        r.norm.ParseDate(it.Field(fieldDate)),
		DueDate:     r.norm.ParseDueDate(it.Field(fieldDueDate)),
		Note:        normalize.SanitizeText(it.Field(fieldNote)),
	}
	if _, err := r.imp.store.AddReceivable(ctx, rec); err != nil {
		return fmt.Errorf("insert piutang: %w", err)
	}
	r.counts.Receivables++
	return nil
}

func (r *textRun) income(ctx context.Context, it txtparser.Item) error {
	in := &types.Income{
		Source: it.Title,
		Kind:   textOr(it.Field(fieldKind), r.imp.defaults.IncomeKind),
		Amount: normalize.ParseAmount(it.Field(fieldAmount)),
		Date:   r.norm.ParseDate(it.Field(fieldDate)),
		Note:   normalize.SanitizeText(it.Field(fieldNote)),
	}
	if _, err := r.imp.store.AddIncome(ctx, in); err != nil {
		return fmt.Errorf("insert pemasukan: %w", err)
	}
	r.counts.Incomes++
	return nil
}

func (r *textRun) expense(ctx context.Context, it txtparser.Item) error {
	e := &types.Expense{
		Category: it.Title,
		Amount:   normalize.ParseAmount(it.Field(fieldAmount)),
		Date:     r.norm.ParseDate(it.Field(fieldDate)),
		Note:     normalize.SanitizeText(it.Field(fieldNote)),
	}
	if _, err := r.imp.store.AddExpense(ctx, e); err != nil {
		return fmt.Errorf("insert pengeluaran: %w", err)
	}
	r.counts.Expenses++
	return nil
}

// maintenance reads odometers as amounts since the export writes them with
// thousand separators ("12.000 km").
func (r *textRun) maintenance(ctx context.Context, it txtparser.Item) error {
	m := &types.MaintenanceLog{
		Name:            it.Title,
		Date:            r.norm.ParseDate(it.Field(fieldDate)),
		CurrentOdometer: normalize.ParseAmount(it.Field(fieldOdometer)),
		NextOdometer:    normalize.ParseAmount(it.Field(fieldNextOdometer)),
		Note:            normalize.SanitizeText(it.Field(fieldNote)),
	}
	if _, err := r.imp.store.AddMaintenance(ctx, m); err != nil {
		return fmt.Errorf("insert maintenance: %w", err)
	}
	r.counts.Maintenance++
	return nil
}
