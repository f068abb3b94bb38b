package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/catatkeu/catatkeu/internal/config"
	"github.com/catatkeu/catatkeu/internal/storage"
	"github.com/catatkeu/catatkeu/internal/types"
)

func TestImportWorkbookReferences(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy id resolves to the new debt id", func(t *testing.T) {
		// arrange
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts: {
				{"Nama": "Motor", "ID Hutang": 9.0, "Total Hutang": 12000000.0},
				{"Nama": "KPR", "ID Hutang": 5.0, "Total Hutang": 150000000.0},
			},
			SheetDebtPayments: {
				{"ID Hutang": 5.0, "Jumlah Bayar": 1500000.0, "Tanggal Bayar": "01/02/2026"},
			},
		})

		// act
		counts, err := imp.ImportWorkbook(ctx, wb)

		// assert
		require.NoError(t, err)
		assert.Equal(t, 2, counts.Debts)
		assert.Equal(t, 1, counts.DebtPayments)

		payments := store.DebtPayments()
		require.Len(t, payments, 1)
		assert.Equal(t, store.Debts()[1].ID, payments[0].DebtID)
		assert.NotEqual(t, int64(5), payments[0].DebtID)
		assert.Equal(t, int64(1500000), payments[0].Amount)
		assert.Equal(t, "2026-02-01", payments[0].Date)
	})

	t.Run("name fallback without legacy id", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts: {
				{"Nama": "Kartu Kredit"},
				{"Nama": "KPR", "ID Hutang": 5.0},
			},
			SheetDebtPayments: {
				{"Nama Hutang": "KPR", "Jumlah Bayar": "Rp 250.000"},
			},
		})

		counts, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, 1, counts.DebtPayments)
		assert.Equal(t, int64(2), store.DebtPayments()[0].DebtID)
	})

	t.Run("receivable payments resolve by id and by person", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetReceivables: {
				{"Nama Orang": "Budi", "ID Piutang": 3.0, "Total Piutang": 500000.0},
				{"Nama Orang": "Sari", "Total Piutang": 200000.0},
			},
			SheetReceivablePayments: {
				{"ID Piutang": 3.0, "Jumlah Diterima": 100000.0},
				{"Nama Orang": "Sari", "Jumlah Diterima": "50.000"},
				{"Nama Orang": "Andi", "Jumlah Diterima": 10.0},
			},
		})

		counts, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, 2, counts.Receivables)
		assert.Equal(t, 2, counts.ReceivablePayments)

		payments := store.ReceivablePayments()
		require.Len(t, payments, 2)
		assert.Equal(t, int64(1), payments[0].ReceivableID)
		assert.Equal(t, int64(2), payments[1].ReceivableID)
		assert.Equal(t, int64(50000), payments[1].Amount)
	})

	t.Run("zero payment is skipped before resolution", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts: {{"Nama": "KPR", "ID Hutang": 5.0}},
			SheetDebtPayments: {
				{"ID Hutang": 5.0, "Jumlah Bayar": 0.0},
				{"ID Hutang": 5.0, "Jumlah Bayar": "abc"},
				{"ID Hutang": 5.0},
			},
		})

		counts, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, 0, counts.DebtPayments)
		assert.Empty(t, store.DebtPayments())
	})

	t.Run("unresolvable payment is skipped", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts:        {{"Nama": "KPR", "ID Hutang": 5.0}},
			SheetDebtPayments: {{"ID Hutang": 6.0, "Nama Hutang": "Motor", "Jumlah Bayar": 1000.0}},
		})

		counts, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, types.Counts{Debts: 1}, counts)
	})

	t.Run("payments without a parent sheet are skipped", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebtPayments: {{"ID Hutang": 5.0, "Nama Hutang": "KPR", "Jumlah Bayar": 1000.0}},
		})

		counts, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Zero(t, counts.Total())
	})

	t.Run("resolvers do not outlive a call", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)

		_, err := imp.ImportWorkbook(ctx, workbook(map[string][]map[string]any{
			SheetDebts: {{"Nama": "KPR", "ID Hutang": 5.0}},
		}))
		require.NoError(t, err)

		counts, err := imp.ImportWorkbook(ctx, workbook(map[string][]map[string]any{
			SheetDebtPayments: {{"ID Hutang": 5.0, "Nama Hutang": "KPR", "Jumlah Bayar": 1000.0}},
		}))

		require.NoError(t, err)
		assert.Zero(t, counts.DebtPayments)
	})
}

func TestImportWorkbookRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("every sheet", func(t *testing.T) {
		// arrange
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts: {{
				"Nama": "KPR Rumah", "ID Hutang": 1.0, "Tipe": "KPR", "Total Hutang": "Rp 150.000.000",
				"Periode (bulan)": 120.0, "Tanggal": "3 Februari 2026", "Catatan": "BTN",
			}},
			SheetDebtPayments: {{
				"ID Hutang": 1.0, "Nama Hutang": "KPR Rumah", "Jumlah Bayar": 1250000.0,
				"Tanggal Bayar": 46056.0, "Catatan": "-",
			}},
			SheetReceivables: {{
				"Nama Orang": "Budi", "ID Piutang": 1.0, "Total Piutang": 500000.0,
				"Tanggal Pinjam": "2026-01-05", "Jatuh Tempo": "2026-06-05",
			}},
			SheetReceivablePayments: {{
				"ID Piutang": 1.0, "Nama Orang": "Budi", "Jumlah Diterima": 200000.0, "Tanggal Terima": "2026-02-05",
			}},
			SheetIncomes: {{
				"Sumber": "Gaji", "Tipe": "Tetap", "Jumlah": 8000000.0, "Tanggal": "25/01/2026",
			}},
			SheetExpenses: {{
				"Kategori": "Makan", "Jumlah": 35000.4, "Tanggal": "2026-01-26", "Catatan": "warteg",
			}},
			SheetMaintenance: {{
				"Nama": "Ganti Oli", "Tanggal": "2026-03-01", "KM Saat Ini": 12000.0, "KM Berikutnya": 14000.0,
			}},
		})

		// act
		counts, err := imp.ImportWorkbook(ctx, wb)

		// assert
		require.NoError(t, err)
		assert.Equal(t, types.Counts{
			Debts: 1, DebtPayments: 1, Receivables: 1, ReceivablePayments: 1,
			Incomes: 1, Expenses: 1, Maintenance: 1,
		}, counts)

		assert.Equal(t, types.Debt{
			ID: 1, Name: "KPR Rumah", Kind: "KPR", TotalAmount: 150000000,
			TermMonths: 120, Date: "2026-02-03", Note: "BTN",
		}, store.Debts()[0])
		assert.Equal(t, types.DebtPayment{
			ID: 1, DebtID: 1, Amount: 1250000, Date: "2026-02-03", Note: "",
		}, store.DebtPayments()[0])
		assert.Equal(t, types.Receivable{
			ID: 1, PersonName: "Budi", TotalAmount: 500000, Date: "2026-01-05", DueDate: "2026-06-05",
		}, store.Receivables()[0])
		assert.Equal(t, "2026-02-05", store.ReceivablePayments()[0].Date)
		assert.Equal(t, types.Income{
			ID: 1, Source: "Gaji", Kind: "Tetap", Amount: 8000000, Date: "2026-01-25",
		}, store.Incomes()[0])
		assert.Equal(t, int64(35000), store.Expenses()[0].Amount)
		assert.Equal(t, "warteg", store.Expenses()[0].Note)
		assert.Equal(t, types.MaintenanceLog{
			ID: 1, Name: "Ganti Oli", Date: "2026-03-01", CurrentOdometer: 12000, NextOdometer: 14000,
		}, store.MaintenanceLogs()[0])
	})

	t.Run("due date sentinel stays empty", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetReceivables: {
				{"Nama Orang": "Budi", "Jatuh Tempo": "-"},
				{"Nama Orang": "Sari"},
			},
		})

		_, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		recs := store.Receivables()
		require.Len(t, recs, 2)
		assert.Equal(t, "", recs[0].DueDate)
		assert.Equal(t, "", recs[1].DueDate)
		assert.Equal(t, today, recs[0].Date)
	})

	t.Run("defaults for optional fields", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts: {
				{"Nama": "Pinjol"},
				{"Nama": "Arisan", "Periode (bulan)": 0.0, "Tipe": "-"},
			},
			SheetIncomes:     {{"Sumber": "Bonus"}},
			SheetMaintenance: {{"Nama": "Servis"}},
		})

		_, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		for _, d := range store.Debts() {
			assert.Equal(t, "Lainnya", d.Kind)
			assert.Equal(t, 12, d.TermMonths)
			assert.Equal(t, int64(0), d.TotalAmount)
			assert.Equal(t, today, d.Date)
		}
		assert.Equal(t, "Lainnya", store.Incomes()[0].Kind)
		assert.Equal(t, int64(0), store.MaintenanceLogs()[0].CurrentOdometer)
		assert.Equal(t, int64(0), store.MaintenanceLogs()[0].NextOdometer)
	})

	t.Run("configured defaults", func(t *testing.T) {
		store := storage.NewMemory()
		cfg := config.DefaultConfig()
		cfg.Defaults = config.Defaults{DebtKind: "Cicilan", IncomeKind: "Sampingan", DebtTermMonths: 24}
		imp := newTestImporter(t, store, WithConfig(cfg))
		wb := workbook(map[string][]map[string]any{
			SheetDebts:   {{"Nama": "Pinjol"}},
			SheetIncomes: {{"Sumber": "Ojek"}},
		})

		_, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, "Cicilan", store.Debts()[0].Kind)
		assert.Equal(t, 24, store.Debts()[0].TermMonths)
		assert.Equal(t, "Sampingan", store.Incomes()[0].Kind)
	})

	t.Run("rows without discriminator are skipped", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts:       {{"Total Hutang": 1000.0}, {"Nama": "  "}, {"Nama": "-"}},
			SheetReceivables: {{"Total Piutang": 1000.0}},
			SheetIncomes:     {{"Jumlah": 1000.0}},
			SheetExpenses:    {{"Kategori": ""}},
			SheetMaintenance: {{"KM Saat Ini": 100.0}},
		})

		counts, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, types.Counts{}, counts)
	})

	t.Run("discriminator is kept verbatim", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts:    {{"Nama": " KPR  Rumah "}},
			SheetExpenses: {{"Kategori": 2024.0}},
		})

		_, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, " KPR  Rumah ", store.Debts()[0].Name)
		assert.Equal(t, "2024", store.Expenses()[0].Category)
	})

	t.Run("1904 workbook serial dates", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetExpenses: {{"Kategori": "Makan", "Tanggal": float64(46056 - 1462)}},
		})
		wb.Date1904 = true

		_, err := imp.ImportWorkbook(ctx, wb)

		require.NoError(t, err)
		assert.Equal(t, "2026-02-03", store.Expenses()[0].Date)
	})

	t.Run("re-import duplicates records", func(t *testing.T) {
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts:        {{"Nama": "KPR", "ID Hutang": 5.0}},
			SheetDebtPayments: {{"ID Hutang": 5.0, "Jumlah Bayar": 100.0}},
		})

		first, err := imp.ImportWorkbook(ctx, wb)
		require.NoError(t, err)
		second, err := imp.ImportWorkbook(ctx, wb)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		require.Len(t, store.Debts(), 2)
		payments := store.DebtPayments()
		require.Len(t, payments, 2)
		assert.Equal(t, int64(1), payments[0].DebtID)
		assert.Equal(t, int64(2), payments[1].DebtID)
	})

	t.Run("insert failure aborts and discards counts", func(t *testing.T) {
		store := newFailingStore(3)
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts:    {{"Nama": "A"}, {"Nama": "B"}},
			SheetIncomes:  {{"Sumber": "Gaji"}},
			SheetExpenses: {{"Kategori": "Makan"}},
		})

		counts, err := imp.ImportWorkbook(ctx, wb)

		require.Error(t, err)
		assert.True(t, errors.Is(err, errDiskFull))
		assert.ErrorContains(t, err, "Pemasukan row 2")
		assert.Equal(t, types.Counts{}, counts)
		assert.Len(t, store.Debts(), 2)
		assert.Empty(t, store.Expenses())
	})

	t.Run("date typed as a plain number falls back to today", func(t *testing.T) {
		// arrange
		store := storage.NewMemory()
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts: {{"Nama": "KPR", "Tanggal": 20260203.0}},
		})

		// act
		_, err := imp.ImportWorkbook(ctx, wb)

		// assert
		require.NoError(t, err)
		assert.Equal(t, today, store.Debts()[0].Date)
	})

	t.Run("database insert error carries the row once", func(t *testing.T) {
		// arrange
		store, err := storage.Open(config.Database{Driver: config.DriverSQLite, DSN: ":memory:"}, log.New(io.Discard))
		require.NoError(t, err)
		require.NoError(t, store.Close())
		imp := newTestImporter(t, store)
		wb := workbook(map[string][]map[string]any{
			SheetDebts: {{"Nama": "KPR"}},
		})

		// act
		counts, err := imp.ImportWorkbook(ctx, wb)

		// assert
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "Hutang row 2: insert hutang: "))
		assert.Equal(t, 1, strings.Count(err.Error(), "insert hutang"))
		assert.Equal(t, types.Counts{}, counts)
	})

	t.Run("unknown sheets are logged and ignored", func(t *testing.T) {
		// arrange
		var logs bytes.Buffer
		logger := log.New(&logs)
		logger.SetLevel(log.DebugLevel)
		store := storage.NewMemory()
		imp := newTestImporter(t, store, WithLogger(logger))
		wb := workbook(map[string][]map[string]any{
			SheetIncomes:  {{"Sumber": "Gaji"}},
			"Catatan Lain": {{"Nama": "x"}},
		})

		// act
		counts, err := imp.ImportWorkbook(ctx, wb)

		// assert
		require.NoError(t, err)
		assert.Equal(t, types.Counts{Incomes: 1}, counts)
		assert.Contains(t, logs.String(), "sheet ignored")
		assert.Contains(t, logs.String(), "Catatan Lain")
	})

	t.Run("nil workbook imports nothing", func(t *testing.T) {
		counts, err := newTestImporter(t, storage.NewMemory()).ImportWorkbook(ctx, nil)

		require.NoError(t, err)
		assert.Zero(t, counts.Total())
	})
}

func TestImportSpreadsheet(t *testing.T) {
	ctx := context.Background()

	t.Run("reads an xlsx file", func(t *testing.T) {
		// arrange
		f := excelize.NewFile()
		t.Cleanup(func() { _ = f.Close() })
		require.NoError(t, f.SetSheetName("Sheet1", SheetDebts))
		require.NoError(t, f.SetSheetRow(SheetDebts, "A1", &[]any{"Nama", "ID Hutang", "Total Hutang", "Tanggal"}))
		require.NoError(t, f.SetSheetRow(SheetDebts, "A2", &[]any{"KPR", 5, 150000000, "01/02/2026"}))
		_, err := f.NewSheet(SheetDebtPayments)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(SheetDebtPayments, "A1", &[]any{"ID Hutang", "Jumlah Bayar"}))
		require.NoError(t, f.SetSheetRow(SheetDebtPayments, "A2", &[]any{5, 1500000}))
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		store := storage.NewMemory()
		imp := newTestImporter(t, store)

		// act
		counts, err := imp.ImportSpreadsheet(ctx, bytes.NewReader(buf.Bytes()))

		// assert
		require.NoError(t, err)
		assert.Equal(t, types.Counts{Debts: 1, DebtPayments: 1}, counts)
		assert.Equal(t, "2026-02-01", store.Debts()[0].Date)
		assert.Equal(t, int64(150000000), store.Debts()[0].TotalAmount)
		assert.Equal(t, int64(1), store.DebtPayments()[0].DebtID)
	})

	t.Run("unreadable input", func(t *testing.T) {
		imp := newTestImporter(t, storage.NewMemory())

		counts, err := imp.ImportSpreadsheet(ctx, iotest.ErrReader(errors.New("device gone")))

		assert.ErrorIs(t, err, ErrUnreadableFile)
		assert.ErrorContains(t, err, "device gone")
		assert.Equal(t, types.Counts{}, counts)
	})

	t.Run("not a workbook", func(t *testing.T) {
		imp := newTestImporter(t, storage.NewMemory())

		_, err := imp.ImportSpreadsheet(ctx, strings.NewReader("Nama,Jumlah\nKPR,1\n"))

		assert.ErrorIs(t, err, ErrInvalidWorkbook)
	})
}
