package sheets

import (
	"reflect"
	"testing"
)

func TestPlanRowWrites(t *testing.T) {
	header := "時間帯"

	t.Run("all new rows appended in order", func(t *testing.T) {
		existing := []string{header, "18:00", "18:30", "19:00"}
		rows := []Row{
			{Month: 1, Day: 15, Time: "19:30", Name: "佐藤", Size: 4},
			{Month: 1, Day: 15, Time: "20:00", Name: "鈴木", Size: 2},
		}

		updates, appends := planRowWrites(existing, rows)
		if len(updates) != 0 {
			t.Fatalf("expected no updates, got %d", len(updates))
		}
		if len(appends) != 2 {
			t.Fatalf("expected 2 appends, got %d", len(appends))
		}
		if appends[0][2] != "19:30" || appends[1][2] != "20:00" {
			t.Errorf("append order broken: %v", appends)
		}
	})

	t.Run("existing label overwritten in place", func(t *testing.T) {
		existing := []string{header, "18:00", "18:30"}
		rows := []Row{{Month: 2, Day: 1, Time: "18:30", Name: "田中", Size: 3, Note: "窓際"}}

		updates, appends := planRowWrites(existing, rows)
		if len(appends) != 0 {
			t.Fatalf("expected no appends, got %d", len(appends))
		}
		if len(updates) != 1 {
			t.Fatalf("expected 1 update, got %d", len(updates))
		}
		// header is sheet row 1, so "18:30" sits on row 3
		if updates[0].RowIndex != 3 {
			t.Errorf("row index = %d, want 3", updates[0].RowIndex)
		}
		want := []interface{}{2, 1, "18:30", "田中", 3, "窓際"}
		if !reflect.DeepEqual(updates[0].Values, want) {
			t.Errorf("values = %v, want %v", updates[0].Values, want)
		}
	})

	t.Run("same label twice keeps last write", func(t *testing.T) {
		existing := []string{header, "18:00"}
		rows := []Row{
			{Time: "18:00", Name: "A"},
			{Time: "18:00", Name: "B"},
		}

		updates, appends := planRowWrites(existing, rows)
		if len(appends) != 0 {
			t.Fatalf("expected no appends, got %d", len(appends))
		}
		if len(updates) != 2 {
			t.Fatalf("expected 2 updates, got %d", len(updates))
		}
		if updates[0].RowIndex != 2 || updates[1].RowIndex != 2 {
			t.Errorf("both writes must target row 2, got %d and %d", updates[0].RowIndex, updates[1].RowIndex)
		}
		if updates[1].Values[3] != "B" {
			t.Errorf("last write must win, got %v", updates[1].Values)
		}
	})

	t.Run("new label repeated within one batch updates the appended row", func(t *testing.T) {
		existing := []string{header, "18:00"}
		rows := []Row{
			{Time: "19:00", Name: "A"},
			{Time: "19:00", Name: "B"},
		}

		updates, appends := planRowWrites(existing, rows)
		if len(appends) != 1 {
			t.Fatalf("expected 1 append, got %d", len(appends))
		}
		if len(updates) != 1 {
			t.Fatalf("expected 1 update, got %d", len(updates))
		}
		// the appended row lands right after the existing data
		if updates[0].RowIndex != 3 {
			t.Errorf("update must target appended row 3, got %d", updates[0].RowIndex)
		}
	})

	t.Run("blank label cells are not match targets", func(t *testing.T) {
		existing := []string{header, "", "18:00"}
		rows := []Row{{Time: "", Name: "名無し"}}

		updates, appends := planRowWrites(existing, rows)
		if len(updates) != 0 {
			t.Fatalf("expected no updates, got %d", len(updates))
		}
		if len(appends) != 1 {
			t.Fatalf("expected 1 append, got %d", len(appends))
		}
	})

	t.Run("duplicate labels in sheet hit first occurrence", func(t *testing.T) {
		existing := []string{header, "18:00", "18:00"}
		rows := []Row{{Time: "18:00", Name: "X"}}

		updates, _ := planRowWrites(existing, rows)
		if len(updates) != 1 || updates[0].RowIndex != 2 {
			t.Fatalf("expected single update on row 2, got %+v", updates)
		}
	})
}

func TestSpreadsheetIDFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"standard url", "https://docs.google.com/spreadsheets/d/abc123XYZ/edit#gid=0", "abc123XYZ", false},
		{"no trailing path", "https://docs.google.com/spreadsheets/d/abc123XYZ", "abc123XYZ", false},
		{"missing marker", "https://docs.google.com/spreadsheets/abc123XYZ", "", true},
		{"empty id", "https://docs.google.com/spreadsheets/d/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SpreadsheetIDFromURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("id = %q, want %q", got, tt.want)
			}
		})
	}
}
