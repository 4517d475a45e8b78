// Package sheets adapts the Google Sheets values API to the gateway's table
// contract.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ganot/placement-desk/internal/repository"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	appendInputOption = "USER_ENTERED"
	updateInputOption = "RAW"
	insertRows        = "INSERT_ROWS"
)

// Client reads and writes one spreadsheet. Every method issues exactly one
// API request.
type Client struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	logger        *slog.Logger
}

// New creates a client for spreadsheetID. Credentials and endpoints come
// from opts.
func New(ctx context.Context, spreadsheetID string, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, repository.Invalid("spreadsheet_id", "is required")
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{values: svc.Spreadsheets.Values, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// Read returns the formatted cell values of rng.
func (c *Client) Read(ctx context.Context, rng string) ([][]string, error) {
	resp, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify("read "+rng, err)
	}
	c.logger.Debug("sheets read", "range", rng, "rows", len(resp.Values))
	return fromValues(resp.Values), nil
}

// Append inserts rows after the table found in rng.
func (c *Client) Append(ctx context.Context, rng string, rows [][]string) (repository.WriteResult, error) {
	resp, err := c.values.Append(c.spreadsheetID, rng, &gsheets.ValueRange{Values: toValues(rows)}).
		ValueInputOption(appendInputOption).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return repository.WriteResult{}, classify("append "+rng, err)
	}

	res := repository.WriteResult{Sheet: sheetOf(rng)}
	if resp.Updates != nil {
		res.UpdatedRange = resp.Updates.UpdatedRange
		res.UpdatedRows = int(resp.Updates.UpdatedRows)
	}
	c.logger.Debug("sheets append", "range", rng, "updated_range", res.UpdatedRange, "rows", res.UpdatedRows)
	return res, nil
}

// Update overwrites the cells of rng.
func (c *Client) Update(ctx context.Context, rng string, rows [][]string) (repository.WriteResult, error) {
	resp, err := c.values.Update(c.spreadsheetID, rng, &gsheets.ValueRange{Values: toValues(rows)}).
		ValueInputOption(updateInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return repository.WriteResult{}, classify("update "+rng, err)
	}
	c.logger.Debug("sheets update", "range", rng, "rows", resp.UpdatedRows)
	return repository.WriteResult{
		Sheet:        sheetOf(rng),
		UpdatedRange: resp.UpdatedRange,
		UpdatedRows:  int(resp.UpdatedRows),
	}, nil
}

// BatchUpdate overwrites several ranges in one request.
func (c *Client) BatchUpdate(ctx context.Context, data []repository.RangeValues) (repository.WriteResult, error) {
	req := &gsheets.BatchUpdateValuesRequest{
		ValueInputOption: updateInputOption,
		Data:             make([]*gsheets.ValueRange, 0, len(data)),
	}
	for _, rv := range data {
		req.Data = append(req.Data, &gsheets.ValueRange{Range: rv.Range, Values: toValues(rv.Values)})
	}

	resp, err := c.values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return repository.WriteResult{}, classify("batch update", err)
	}
	res := repository.WriteResult{UpdatedRows: int(resp.TotalUpdatedRows)}
	if len(data) > 0 {
		res.Sheet = sheetOf(data[0].Range)
	}
	c.logger.Debug("sheets batch update", "ranges", len(data), "rows", res.UpdatedRows)
	return res, nil
}

// classify maps an API failure onto the retry taxonomy: throttling, server
// errors and network failures are retryable, other statuses are not.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if retryableStatus(apiErr.Code) {
			return &repository.TransportError{Op: op, Err: err}
		}
		return &repository.RejectedError{Op: op, Status: apiErr.Code, Err: err}
	}
	// No HTTP status: dial, TLS, timeout or a cut connection.
	return &repository.TransportError{Op: op, Err: err}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusRequestTimeout,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		out[i] = cells
	}
	return out
}

func fromValues(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				cells[j] = fmt.Sprint(cell)
			}
		}
		out[i] = cells
	}
	return out
}

func sheetOf(rng string) string {
	sheet, _, err := repository.ParseA1(rng)
	if err != nil {
		return ""
	}
	return sheet
}
