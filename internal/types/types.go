// =============================================================================
// catatkeu - Shared Types
// =============================================================================
//
// This package contains the record model shared by the importers and the
// storage backends. Keeping it in its own package avoids import cycles between:
//   - importer
//   - storage
//   - cmd
//
// All amounts are whole rupiah (no minor units). All dates are canonical
// YYYY-MM-DD strings; Receivable.DueDate is the only date that may be empty.
//
// =============================================================================

package types

// =============================================================================
// DEBTS (HUTANG)
// =============================================================================

// Debt is money owed by the user.
type Debt struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:200;not null" json:"nama"`
	Kind        string `gorm:"size:100" json:"tipe"`
	TotalAmount int64  `gorm:"not null;default:0" json:"jumlah"`
	TermMonths  int    `gorm:"not null;default:12" json:"periode"`
	Date        string `gorm:"size:10;index" json:"tanggal"`
	Note        string `json:"catatan"`
}

// TableName keeps the table names of the original browser store.
func (Debt) TableName() string { return "hutang" }

// DebtPayment reduces the balance of a Debt.
type DebtPayment struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	DebtID int64  `gorm:"index;not null" json:"hutangId"`
	Amount int64  `gorm:"not null" json:"jumlah"`
	Date   string `gorm:"size:10" json:"tanggal"`
	Note   string `json:"catatan"`
}

func (DebtPayment) TableName() string { return "pembayaran_hutang" }

// =============================================================================
// RECEIVABLES (PIUTANG)
// =============================================================================

// Receivable is money other people owe the user.
type Receivable struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	PersonName  string `gorm:"size:200;not null" json:"namaOrang"`
	TotalAmount int64  `gorm:"not null;default:0" json:"jumlah"`
	Date        string `gorm:"size:10;index" json:"tanggal"`

	// DueDate is empty when the receivable has no due date.
	DueDate string `gorm:"size:10" json:"jatuhTempo"`

	Note string `json:"catatan"`
}

func (Receivable) TableName() string { return "piutang" }

// ReceivablePayment is money received against a Receivable.
type ReceivablePayment struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	ReceivableID int64  `gorm:"index;not null" json:"piutangId"`
	Amount       int64  `gorm:"not null" json:"jumlah"`
	Date         string `gorm:"size:10" json:"tanggal"`
	Note         string `json:"catatan"`
}

func (ReceivablePayment) TableName() string { return "pembayaran_piutang" }

// =============================================================================
// CASH FLOW
// =============================================================================

// Income (pemasukan).
type Income struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	Source string `gorm:"size:200;not null" json:"sumber"`
	Kind   string `gorm:"size:100" json:"tipe"`
	Amount int64  `gorm:"not null;default:0" json:"jumlah"`
	Date   string `gorm:"size:10;index" json:"tanggal"`
	Note   string `json:"catatan"`
}

func (Income) TableName() string { return "pemasukan" }

// Expense (pengeluaran).
type Expense struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Category string `gorm:"size:200;not null" json:"kategori"`
	Amount   int64  `gorm:"not null;default:0" json:"jumlah"`
	Date     string `gorm:"size:10;index" json:"tanggal"`
	Note     string `json:"catatan"`
}

func (Expense) TableName() string { return "pengeluaran" }

// =============================================================================
// MAINTENANCE
// =============================================================================

// MaintenanceLog records a vehicle service and the odometer readings around it.
type MaintenanceLog struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;not null" json:"nama"`
	Date            string `gorm:"size:10;index" json:"tanggal"`
	CurrentOdometer int64  `gorm:"column:km_saat_ini" json:"km_saat_ini"`
	NextOdometer    int64  `gorm:"column:km_berikutnya" json:"km_berikutnya"`
	Note            string `json:"catatan"`
}

func (MaintenanceLog) TableName() string { return "maintenance" }

// AllModels lists every persisted entity, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Debt{},
		&DebtPayment{},
		&Receivable{},
		&ReceivablePayment{},
		&Income{},
		&Expense{},
		&MaintenanceLog{},
	}
}

// =============================================================================
// IMPORT COUNTS
// =============================================================================

// Counts is the number of records inserted per entity kind by one import.
type Counts struct {
	Debts              int `json:"hutang"`
	DebtPayments       int `json:"pembayaranHutang"`
	Receivables        int `json:"piutang"`
	ReceivablePayments int `json:"pembayaranPiutang"`
	Incomes            int `json:"pemasukan"`
	Expenses           int `json:"pengeluaran"`
	Maintenance        int `json:"maintenance"`
}

// Total returns the number of inserted records across all kinds.
func (c Counts) Total() int {
	return c.Debts + c.DebtPayments + c.Receivables + c.ReceivablePayments +
		c.Incomes + c.Expenses + c.Maintenance
}

// Add returns the element-wise sum of c and other.
func (c Counts) Add(other Counts) Counts {
	return Counts{
		Debts:              c.Debts + other.Debts,
		DebtPayments:       c.DebtPayments + other.DebtPayments,
		Receivables:        c.Receivables + other.Receivables,
		ReceivablePayments: c.ReceivablePayments + other.ReceivablePayments,
		Incomes:            c.Incomes + other.Incomes,
		Expenses:           c.Expenses + other.Expenses,
		Maintenance:        c.Maintenance + other.Maintenance,
	}
}

// =============================================================================
// DASHBOARD SUMMARY
// =============================================================================

// Summary holds the dashboard totals computed from stored records.
type Summary struct {
	DebtCount        int64
	DebtTotal        int64
	DebtPaid         int64
	ReceivableCount  int64
	ReceivableTotal  int64
	ReceivablePaid   int64
	IncomeTotal      int64
	ExpenseTotal     int64
	MaintenanceCount int64

	// NextServiceOdometer is the next-service odometer of the most recent
	// maintenance log, or 0 when there is none.
	NextServiceOdometer int64
}

// DebtOutstanding is what is still owed; never negative.
func (s Summary) DebtOutstanding() int64 {
	return nonNegative(s.DebtTotal - s.DebtPaid)
}

// ReceivableOutstanding is what is still to be collected; never negative.
func (s Summary) ReceivableOutstanding() int64 {
	return nonNegative(s.ReceivableTotal - s.ReceivablePaid)
}

// Balance is income minus expenses.
func (s Summary) Balance() int64 {
	return s.IncomeTotal - s.ExpenseTotal
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
