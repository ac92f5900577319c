package conversation

import (
	"context"

	"github.com/tsumiki/yoyakubot/internal/sheets"
)

// SheetsAdapter exposes the sheets client through the engine's SheetWriter
// interface.
type SheetsAdapter struct {
	client *sheets.Client
}

// NewSheetsAdapter wraps a sheets client for use by the engine.
func NewSheetsAdapter(client *sheets.Client) *SheetsAdapter {
	return &SheetsAdapter{client: client}
}

func (a *SheetsAdapter) CreateStoreDocument(ctx context.Context, reg StoreRegistration) (string, error) {
	return a.client.CreateStoreDocument(ctx, sheets.CreateStoreParams{
		StoreName: reg.StoreName,
		StoreID:   reg.StoreID,
		SeatInfo:  reg.SeatInfo,
		TimeSlots: reg.TimeSlots,
	})
}

func (a *SheetsAdapter) AppendRows(ctx context.Context, sheetURL string, rows []ReservationRow) error {
	converted := make([]sheets.Row, 0, len(rows))
	for _, r := range rows {
		converted = append(converted, sheets.Row{
			Month: r.Month,
			Day:   r.Day,
			Time:  r.Time,
			Name:  r.Name,
			Size:  r.Size,
			Note:  r.Note,
		})
	}
	return a.client.AppendRows(ctx, sheetURL, converted)
}
