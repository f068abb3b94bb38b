package xlsxparser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newWorkbook writes sheets (name -> rows) to xlsx bytes. The first sheet
// replaces the default "Sheet1".
func newWorkbook(t *testing.T, order []string, sheets map[string][][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			for c, v := range row {
				if v == nil {
					continue
				}
				ref, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, ref, v))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	t.Run("header keyed rows", func(t *testing.T) {
		// arrange
		data := newWorkbook(t, []string{"Hutang", "Pemasukan"}, map[string][][]any{
			"Hutang": {
				{"Nama", "Total Hutang", "ID Hutang", "Tanggal"},
				{"KPR Rumah", 150000000, "5", time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
				{nil, nil, nil, nil},
				{"Motor", "Rp 12.000.000"},
			},
			"Pemasukan": {
				{"Sumber", "Jumlah"},
			},
		})

		// act
		wb, err := Open(data)

		// assert
		require.NoError(t, err)
		assert.Equal(t, []string{"Hutang", "Pemasukan"}, wb.Order)
		assert.NotNil(t, wb.Sheet("Pemasukan"))
		assert.Nil(t, wb.Sheet("Piutang"))

		sheet := wb.Sheet("Hutang")
		require.NotNil(t, sheet)
		assert.Equal(t, []string{"Nama", "Total Hutang", "ID Hutang", "Tanggal"}, sheet.Headers)
		require.Len(t, sheet.Rows, 2)

		first := sheet.Rows[0]
		assert.Equal(t, 2, first.Number)
		assert.Equal(t, "KPR Rumah", first.Value("Nama"))
		assert.Equal(t, 150000000.0, first.Value("Total Hutang"))
		assert.Equal(t, "5", first.Value("ID Hutang"))
		assert.IsType(t, float64(0), first.Value("Tanggal"))

		second := sheet.Rows[1]
		assert.Equal(t, 4, second.Number)
		assert.Equal(t, "Rp 12.000.000", second.Value("Total Hutang"))
		assert.NotContains(t, second.Cells, "ID Hutang")

		assert.Empty(t, wb.Sheet("Pemasukan").Rows)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := Open([]byte("1. KPR Rumah\nTipe: KPR\n"))
		assert.ErrorIs(t, err, ErrInvalidWorkbook)
	})

	t.Run("broken zip", func(t *testing.T) {
		_, err := Open([]byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x01})
		assert.ErrorIs(t, err, ErrInvalidWorkbook)
	})
}

func TestCleanHeaders(t *testing.T) {
	got := cleanHeaders([]string{" Nama ", "", "Nama", "Catatan", "", "Nama"})
	assert.Equal(t, []string{"Nama", "__EMPTY", "Nama_1", "Catatan", "__EMPTY_1", "Nama_2"}, got)
}

func TestTypedValue(t *testing.T) {
	assert.Equal(t, "007", typedValue(excelize.CellTypeSharedString, "007"))
	assert.Equal(t, 7.0, typedValue(excelize.CellTypeUnset, "007"))
	assert.Equal(t, 1.5e6, typedValue(excelize.CellTypeNumber, "1.5E6"))
	assert.Equal(t, "Nan", typedValue(excelize.CellTypeUnset, "Nan"))
	assert.Equal(t, true, typedValue(excelize.CellTypeBool, "1"))
	assert.Equal(t,
		time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		typedValue(excelize.CellTypeDate, "2026-02-03T00:00:00Z"))
}
