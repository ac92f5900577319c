package conversation

import (
	"reflect"
	"testing"
)

func TestDecodeStringArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "plain array",
			raw:  `["18:00", "18:30", "19:00"]`,
			want: []string{"18:00", "18:30", "19:00"},
		},
		{
			name: "fenced json block",
			raw:  "```json\n[\"18:00\", \"19:00\"]\n```",
			want: []string{"18:00", "19:00"},
		},
		{
			name: "prose around the array",
			raw:  "読み取った時間帯は以下の通りです。\n[\"18:00\"]\nご確認ください。",
			want: []string{"18:00"},
		},
		{
			name: "blank entries dropped",
			raw:  `["18:00", "", "  ", "19:00"]`,
			want: []string{"18:00", "19:00"},
		},
		{name: "empty array", raw: `[]`, want: nil},
		{name: "not json", raw: "すみません、読み取れませんでした。", want: nil},
		{name: "empty input", raw: "", want: nil},
		{name: "malformed", raw: `["18:00",`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeStringArray(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decodeStringArray(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeReservationRows(t *testing.T) {
	raw := "```json\n" + `[
  {"month": 6, "day": 1, "time": "18:00", "name": "田中", "size": 2, "note": "窓際"},
  {"month": 6, "day": 1, "time": "19:00", "name": "佐藤", "size": 4, "note": ""}
]` + "\n```"

	rows := decodeReservationRows(raw)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	want := ReservationRow{Month: 6, Day: 1, Time: "18:00", Name: "田中", Size: 2, Note: "窓際"}
	if rows[0] != want {
		t.Errorf("row[0] = %+v, want %+v", rows[0], want)
	}
}

func TestDecodeReservationRowsObjectWrapped(t *testing.T) {
	raw := `{"reservations": [{"month": 6, "day": 2, "time": "18:00", "name": "A", "size": 1, "note": ""}]}`
	rows := decodeReservationRows(raw)
	if len(rows) != 1 || rows[0].Day != 2 {
		t.Errorf("rows = %v", rows)
	}
}

func TestDecodeReservationRowsUnusable(t *testing.T) {
	for _, raw := range []string{"", "no data here", `[]`, `[{"month": "six"}]`} {
		if rows := decodeReservationRows(raw); rows != nil {
			t.Errorf("decodeReservationRows(%q) = %v, want nil", raw, rows)
		}
	}
}
