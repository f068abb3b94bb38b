package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/catatkeu/catatkeu/internal/normalize"
	"github.com/catatkeu/catatkeu/internal/types"
	"github.com/catatkeu/catatkeu/internal/xlsxparser"
)

// Sheet names of the workbook export.
const (
	SheetDebts              = "Hutang"
	SheetDebtPayments       = "Pembayaran Hutang"
	SheetReceivables        = "Piutang"
	SheetReceivablePayments = "Pembayaran Piutang"
	SheetIncomes            = "Pemasukan"
	SheetExpenses           = "Pengeluaran"
	SheetMaintenance        = "Maintenance"
)

// Column headers, grouped by sheet.
const (
	colName    = "Nama"
	colKind    = "Tipe"
	colDate    = "Tanggal"
	colNote    = "Catatan"
	colAmount  = "Jumlah"
	colDebtID  = "ID Hutang"
	colDebtSum = "Total Hutang"
	colTerm    = "Periode (bulan)"

	colPaidAmount = "Jumlah Bayar"
	colDebtName   = "Nama Hutang"
	colPaidDate   = "Tanggal Bayar"

	colPerson        = "Nama Orang"
	colReceivableID  = "ID Piutang"
	colReceivableSum = "Total Piutang"
	colLentDate      = "Tanggal Pinjam"
	colDueDate       = "Jatuh Tempo"

	colReceivedAmount = "Jumlah Diterima"
	colReceivedDate   = "Tanggal Terima"

	colSource   = "Sumber"
	colCategory = "Kategori"

	colOdometer     = "KM Saat Ini"
	colNextOdometer = "KM Berikutnya"
)

// spreadsheetRun is the state of one workbook import. The resolvers live and
// die with it.
type spreadsheetRun struct {
	imp    *Importer
	norm   *normalize.Normalizer
	counts types.Counts

	debts       *Resolver
	receivables *Resolver
}

// sheetStep imports one sheet.
type sheetStep struct {
	name string
	run  func(ctx context.Context, row xlsxparser.Row) error
}

// ImportSpreadsheet reads a whole workbook from r and imports it.
//
// RETURNS:
//   - The inserted record counts.
//   - ErrUnreadableFile (wrapped) when r fails, ErrInvalidWorkbook (wrapped)
//     when the bytes are not a workbook, or the first insert error. Counts
//     are zero whenever an error is returned.
func (imp *Importer) ImportSpreadsheet(ctx context.Context, r io.Reader) (types.Counts, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.Counts{}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	wb, err := xlsxparser.Open(data)
	if err != nil {
		return types.Counts{}, err
	}

	return imp.ImportWorkbook(ctx, wb)
}

// ImportWorkbook imports an already parsed workbook. Sheets are processed in
// a fixed order so parents exist before their payments:
//
//	Hutang, Pembayaran Hutang, Piutang, Pembayaran Piutang,
//	Pemasukan, Pengeluaran, Maintenance
//
// Missing sheets are skipped; sheets with other names are logged and ignored.
func (imp *Importer) ImportWorkbook(ctx context.Context, wb *xlsxparser.Workbook) (types.Counts, error) {
	run := &spreadsheetRun{
		imp: imp,
		norm: &normalize.Normalizer{
			Now:     imp.now,
			Use1904: imp.date1904 || (wb != nil && wb.Date1904),
		},
		debts:       NewResolver(),
		receivables: NewResolver(),
	}

	steps := []sheetStep{
		{SheetDebts, run.debt},
		{SheetDebtPayments, run.debtPayment},
		{SheetReceivables, run.receivable},
		{SheetReceivablePayments, run.receivablePayment},
		{SheetIncomes, run.income},
		{SheetExpenses, run.expense},
		{SheetMaintenance, run.maintenance},
	}

	if wb != nil {
		known := make(map[string]bool, len(steps))
		for _, step := range steps {
			known[step.name] = true
		}
		for _, name := range wb.Order {
			if !known[name] {
				imp.logger.Debug("sheet ignored", "sheet", name)
			}
		}
	}

	for _, step := range steps {
		sheet := wb.Sheet(step.name)
		if sheet == nil {
			continue
		}

		imp.logger.Debug("importing sheet", "sheet", step.name, "rows", len(sheet.Rows))
		for _, row := range sheet.Rows {
			if err := step.run(ctx, row); err != nil {
				return types.Counts{}, fmt.Errorf("%s row %d: %w", step.name, row.Number, err)
			}
		}
	}

	return run.counts, nil
}

func (r *spreadsheetRun) skip(sheet string, row xlsxparser.Row, reason string) {
	r.imp.logger.Debug("row skipped", "sheet", sheet, "row", row.Number, "reason", reason)
}

// =============================================================================
// DEBTS
// =============================================================================

func (r *spreadsheetRun) debt(ctx context.Context, row xlsxparser.Row) error {
	name := row.Value(colName)
	if normalize.IsAbsent(name) {
		r.skip(SheetDebts, row, "missing "+colName)
		return nil
	}

	d := &types.Debt{
		Name:        normalize.Stringify(name),
		Kind:        textOr(row.Value(colKind), r.imp.defaults.DebtKind),
		TotalAmount: normalize.ParseAmount(row.Value(colDebtSum)),
		TermMonths:  int(normalize.IntOr(normalize.ParseNullableInt(row.Value(colTerm)), int64(r.imp.defaults.DebtTermMonths))),
		Date:        r.norm.ParseDate(row.Value(colDate)),
		Note:        normalize.SanitizeText(row.Value(colNote)),
	}

	id, err := r.imp.store.AddDebt(ctx, d)
	if err != nil {
		return fmt.Errorf("insert hutang: %w", err)
	}
	r.debts.Register(normalize.ParseNullableInt(row.Value(colDebtID)), d.Name, id)
	r.counts.Debts++
	return nil
}

func (r *spreadsheetRun) debtPayment(ctx context.Context, row xlsxparser.Row) error {
	amount := normalize.ParseAmount(row.Value(colPaidAmount))
	if amount == 0 {
		r.skip(SheetDebtPayments, row, "zero "+colPaidAmount)
		return nil
	}

	debtID, ok := r.debts.Resolve(
		normalize.ParseNullableInt(row.Value(colDebtID)),
		normalize.SanitizeText(row.Value(colDebtName)),
	)
	if !ok {
		r.skip(SheetDebtPayments, row, "unknown debt")
		return nil
	}

	p := &types.DebtPayment{
		DebtID: debtID,
		Amount: amount,
		Date:   r.norm.ParseDate(row.Value(colPaidDate)),
		Note:   normalize.SanitizeText(row.Value(colNote)),
	}
	if _, err := r.imp.store.AddDebtPayment(ctx, p); err != nil {
		return fmt.Errorf("insert pembayaran hutang: %w", err)
	}
	r.counts.DebtPayments++
	return nil
}

// =============================================================================
// RECEIVABLES
// =============================================================================

func (r *spreadsheetRun) receivable(ctx context.Context, row xlsxparser.Row) error {
	person := row.Value(colPerson)
	if normalize.IsAbsent(person) {
		r.skip(SheetReceivables, row, "missing "+colPerson)
		return nil
	}

	rec := &types.Receivable{
		PersonName:  normalize.Stringify(person),
		TotalAmount: normalize.ParseAmount(row.Value(colReceivableSum)),
		Date:        r.norm.ParseDate(row.Value(colLentDate)),
		DueDate:     r.norm.ParseDueDate(row.Value(colDueDate)),
		Note:        normalize.SanitizeText(row.Value(colNote)),
	}

	id, err := r.imp.store.AddReceivable(ctx, rec)
	if err != nil {
		return fmt.Errorf("insert piutang: %w", err)
	}
	r.receivables.Register(normalize.ParseNullableInt(row.Value(colReceivableID)), rec.PersonName, id)
	r.counts.Receivables++
	return nil
}

func (r *spreadsheetRun) receivablePayment(ctx context.Context, row xlsxparser.Row) error {
	amount := normalize.ParseAmount(row.Value(colReceivedAmount))
	if amount == 0 {
		r.skip(SheetReceivablePayments, row, "zero "+colReceivedAmount)
		return nil
	}

	receivableID, ok := r.receivables.Resolve(
		normalize.ParseNullableInt(row.Value(colReceivableID)),
		normalize.SanitizeText(row.Value(colPerson)),
	)
	if !ok {
		r.skip(SheetReceivablePayments, row, "unknown receivable")
		return nil
	}

	p := &types.ReceivablePayment{
		ReceivableID: receivableID,
		Amount:       amount,
		Date:         r.norm.ParseDate(row.Value(colReceivedDate)),
		Note:         normalize.SanitizeText(row.Value(colNote)),
	}
	if _, err := r.imp.store.AddReceivablePayment(ctx, p); err != nil {
		return fmt.Errorf("insert pembayaran piutang: %w", err)
	}
	r.counts.ReceivablePayments++
	return nil
}

// =============================================================================
// CASH FLOW AND MAINTENANCE
// =============================================================================

func (r *spreadsheetRun) income(ctx context.Context, row xlsxparser.Row) error {
	source := row.Value(colSource)
	if normalize.IsAbsent(source) {
		r.skip(SheetIncomes, row, "missing "+colSource)
		return nil
	}

	in := &types.Income{
		Source: normalize.Stringify(source),
		Kind:   textOr(row.Value(colKind), r.imp.defaults.IncomeKind),
		Amount: normalize.ParseAmount(row.Value(colAmount)),
		Date:   r.norm.ParseDate(row.Value(colDate)),
		Note:   normalize.SanitizeText(row.Value(colNote)),
	}
	if _, err := r.imp.store.AddIncome(ctx, in); err != nil {
		return fmt.Errorf("insert pemasukan: %w", err)
	}
	r.counts.Incomes++
	return nil
}

func (r *spreadsheetRun) expense(ctx context.Context, row xlsxparser.Row) error {
	category := row.Value(colCategory)
	if normalize.IsAbsent(category) {
		r.skip(SheetExpenses, row, "missing "+colCategory)
		return nil
	}

	e := &types.Expense{
		Category: normalize.Stringify(category),
		Amount:   normalize.ParseAmount(row.Value(colAmount)),
		Date:     r.norm.ParseDate(row.Value(colDate)),
		Note:     normalize.SanitizeText(row.Value(colNote)),
	}
	if _, err := r.imp.store.AddExpense(ctx, e); err != nil {
		return fmt.Errorf("insert pengeluaran: %w", err)
	}
	r.counts.Expenses++
	return nil
}

func (r *spreadsheetRun) maintenance(ctx context.Context, row xlsxparser.Row) error {
	name := row.Value(colName)
	if normalize.IsAbsent(name) {
		r.skip(SheetMaintenance, row, "missing "+colName)
		return nil
	}

	m := &types.MaintenanceLog{
		Name:            normalize.Stringify(name),
		Date:            r.norm.ParseDate(row.Value(colDate)),
		CurrentOdometer: normalize.IntOr(normalize.ParseNullableInt(row.Value(colOdometer)), 0),
		NextOdometer:    normalize.IntOr(normalize.ParseNullableInt(row.Value(colNextOdometer)), 0),
		Note:            normalize.SanitizeText(row.Value(colNote)),
	}
	if _, err := r.imp.store.AddMaintenance(ctx, m); err != nil {
		return fmt.Errorf("insert maintenance: %w", err)
	}
	r.counts.Maintenance++
	return nil
}

// textOr returns the text of raw, or def when raw is absent.
func textOr(raw any, def string) string {
	if normalize.IsAbsent(raw) {
		return def
	}
	return normalize.Stringify(raw)
}
