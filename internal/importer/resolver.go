package importer

// Resolver maps the parent references of payment rows to the IDs the store
// assigned to their parents during the same import call.
//
// Two lookups are kept:
//   - legacy ID -> new ID, from the "ID Hutang" / "ID Piutang" column
//   - name -> new IDs in insertion order, so duplicate names keep every ID
//
// A Resolver lives for one import call only. It never sees records from an
// earlier import.
type Resolver struct {
	byLegacyID map[int64]int64
	byName     map[string][]int64
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		byLegacyID: make(map[int64]int64),
		byName:     make(map[string][]int64),
	}
}

// Register records a freshly inserted parent. legacyID may be nil and name
// may be empty; either lookup is then left untouched. A repeated legacy ID
// points at the latest parent.
func (r *Resolver) Register(legacyID *int64, name string, newID int64) {
	if legacyID != nil {
		r.byLegacyID[*legacyID] = newID
	}
	if name != "" {
		r.byName[name] = append(r.byName[name], newID)
	}
}

// Resolve finds the parent of a payment row. The legacy ID wins when it is
// known; otherwise the first parent registered under name is used.
func (r *Resolver) Resolve(legacyID *int64, name string) (int64, bool) {
	if legacyID != nil {
		if id, ok := r.byLegacyID[*legacyID]; ok {
			return id, true
		}
	}
	if ids := r.byName[name]; name != "" && len(ids) > 0 {
		return ids[0], true
	}
	return 0, false
}
