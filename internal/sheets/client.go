package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/tsumiki/yoyakubot/pkg/logging"
)

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	valueInputOption    = "USER_ENTERED"

	// Column C carries the time label in store documents.
	timeLabelRange = "C:C"
	fullRowColumns = "A%d:F%d"
)

var masterHeader = []interface{}{"店舗名", "店舗ID", "座席数", "シートURL", "登録日時"}
var storeHeader = []interface{}{"月", "日", "時間帯", "名前", "人数", "備考"}

// CreateStoreParams carries the registration data for a new store document.
type CreateStoreParams struct {
	StoreName string
	StoreID   int
	SeatInfo  string
	TimeSlots []string
}

// Client manages the master index and per-store reservation spreadsheets.
type Client struct {
	sheets     *gsheets.Service
	drive      *drive.Service
	masterName string
	logger     *logging.Logger
	now        func() time.Time
}

// NewClient creates a Sheets/Drive client authenticated with a
// service-account JSON key.
func NewClient(ctx context.Context, credentialsJSON []byte, masterName string, logger *logging.Logger) (*Client, error) {
	if masterName == "" {
		return nil, errors.New("sheets: master sheet name is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	conf, err := google.JWTConfigFromJSON(credentialsJSON, gsheets.SpreadsheetsScope, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse service account key: %w", err)
	}
	httpClient := conf.Client(ctx)

	sheetsSvc, err := gsheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("sheets: create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("sheets: create drive service: %w", err)
	}

	return &Client{
		sheets:     sheetsSvc,
		drive:      driveSvc,
		masterName: masterName,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// EnsureMasterIndex locates the singleton master index spreadsheet, creating
// it with its header row when absent. Returns the spreadsheet id.
func (c *Client) EnsureMasterIndex(ctx context.Context) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(c.masterName, "'", `\'`), spreadsheetMimeType)

	list, err := c.drive.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("sheets: search master index: %w", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := c.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: c.masterName},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: create master index: %w", err)
	}

	if err := c.writeRange(ctx, created.SpreadsheetId, "A1", [][]interface{}{masterHeader}); err != nil {
		return "", err
	}

	c.logger.Info("master index created", "spreadsheet_id", created.SpreadsheetId, "name", c.masterName)
	return created.SpreadsheetId, nil
}

// CreateStoreDocument creates a per-store reservation spreadsheet with its
// header row and one pre-populated row per time slot, registers the store in
// the master index, shares the document by link, and returns its URL.
func (c *Client) CreateStoreDocument(ctx context.Context, params CreateStoreParams) (string, error) {
	masterID, err := c.EnsureMasterIndex(ctx)
	if err != nil {
		return "", err
	}

	title := fmt.Sprintf("予約表 - %s (%d)", params.StoreName, params.StoreID)
	created, err := c.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: create store document: %w", err)
	}

	values := make([][]interface{}, 0, len(params.TimeSlots)+1)
	values = append(values, storeHeader)
	for _, slot := range params.TimeSlots {
		values = append(values, []interface{}{"", "", slot, "", "", ""})
	}
	if err := c.writeRange(ctx, created.SpreadsheetId, "A1", values); err != nil {
		return "", err
	}

	// Anyone with the URL can open the sheet; the bot only ever hands the
	// link to the registering store.
	_, err = c.drive.Permissions.Create(created.SpreadsheetId, &drive.Permission{
		Type: "anyone",
		Role: "writer",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: share store document: %w", err)
	}

	masterRow := []interface{}{
		params.StoreName,
		params.StoreID,
		strings.ReplaceAll(params.SeatInfo, "\n", " "),
		created.SpreadsheetUrl,
		c.now().Format(time.RFC3339),
	}
	if err := c.appendRange(ctx, masterID, "A1", [][]interface{}{masterRow}); err != nil {
		return "", err
	}

	c.logger.Info("store document created",
		"store_name", params.StoreName,
		"store_id", params.StoreID,
		"spreadsheet_id", created.SpreadsheetId,
	)
	return created.SpreadsheetUrl, nil
}

// AppendRows writes reservation rows to a store document. A row whose time
// label already exists in the sheet overwrites that row in place; everything
// else is appended. An empty rows slice is a no-op.
func (c *Client) AppendRows(ctx context.Context, sheetURL string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	spreadsheetID, err := SpreadsheetIDFromURL(sheetURL)
	if err != nil {
		return err
	}

	resp, err := c.sheets.Spreadsheets.Values.Get(spreadsheetID, timeLabelRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: read time labels: %w", err)
	}

	existing := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			existing = append(existing, "")
			continue
		}
		existing = append(existing, fmt.Sprint(row[0]))
	}

	updates, appends := planRowWrites(existing, rows)

	// Appends go first so an update that targets a row introduced by this
	// same batch lands on a row that already exists.
	if len(appends) > 0 {
		if err := c.appendRange(ctx, spreadsheetID, "A1", appends); err != nil {
			return err
		}
	}
	for _, u := range updates {
		rangeRef := fmt.Sprintf(fullRowColumns, u.RowIndex, u.RowIndex)
		if err := c.writeRange(ctx, spreadsheetID, rangeRef, [][]interface{}{u.Values}); err != nil {
			return err
		}
	}

	c.logger.Info("reservation rows written",
		"spreadsheet_id", spreadsheetID,
		"updated", len(updates),
		"appended", len(appends),
	)
	return nil
}

func (c *Client) writeRange(ctx context.Context, spreadsheetID, rangeRef string, values [][]interface{}) error {
	_, err := c.sheets.Spreadsheets.Values.Update(spreadsheetID, rangeRef, &gsheets.ValueRange{
		Values: values,
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: write range %s: %w", rangeRef, err)
	}
	return nil
}

func (c *Client) appendRange(ctx context.Context, spreadsheetID, rangeRef string, values [][]interface{}) error {
	_, err := c.sheets.Spreadsheets.Values.Append(spreadsheetID, rangeRef, &gsheets.ValueRange{
		Values: values,
	}).ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: append rows: %w", err)
	}
	return nil
}

// SpreadsheetIDFromURL extracts the document id from a spreadsheet URL.
func SpreadsheetIDFromURL(sheetURL string) (string, error) {
	const marker = "/d/"
	idx := strings.Index(sheetURL, marker)
	if idx < 0 {
		return "", fmt.Errorf("sheets: no spreadsheet id in %q", sheetURL)
	}
	id := sheetURL[idx+len(marker):]
	if slash := strings.IndexByte(id, '/'); slash >= 0 {
		id = id[:slash]
	}
	if id == "" {
		return "", fmt.Errorf("sheets: no spreadsheet id in %q", sheetURL)
	}
	return id, nil
}
