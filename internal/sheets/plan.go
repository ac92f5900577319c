package sheets

// Row is one reservation entry destined for a store document.
type Row struct {
	Month int
	Day   int
	Time  string
	Name  string
	Size  int
	Note  string
}

type rowUpdate struct {
	RowIndex int // 1-based sheet row
	Values   []interface{}
}

func rowValues(r Row) []interface{} {
	return []interface{}{r.Month, r.Day, r.Time, r.Name, r.Size, r.Note}
}

// planRowWrites decides, for each incoming row, whether it overwrites an
// existing sheet row or is appended. Rows are keyed by exact equality of the
// time label; two dates sharing a label collide on the same row, matching the
// sheet's single-day usage. existing is the time-label column including the
// header cell at position 0. When a label repeats in existing, the first
// occurrence wins.
func planRowWrites(existing []string, rows []Row) (updates []rowUpdate, appends [][]interface{}) {
	index := make(map[string]int, len(existing))
	for i, label := range existing {
		if i == 0 || label == "" {
			continue
		}
		if _, ok := index[label]; !ok {
			index[label] = i + 1
		}
	}

	next := len(existing) + 1
	for _, r := range rows {
		if idx, ok := index[r.Time]; ok {
			updates = append(updates, rowUpdate{RowIndex: idx, Values: rowValues(r)})
			continue
		}
		appends = append(appends, rowValues(r))
		index[r.Time] = next
		next++
	}
	return updates, appends
}
