package clients

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	defaultSheetsWriteQPS = 1.0
	spreadsheetURLPrefix  = "https://docs.google.com/spreadsheets/d/"
)

// SheetsConfig configures the Google Sheets client.
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	// WritesPerSecond throttles updates to stay inside the per-user quota.
	WritesPerSecond float64
	// Endpoint overrides the API root, unauthenticated (local emulators, tests).
	Endpoint string
}

// SheetsClient reads and writes cell ranges of one spreadsheet.
type SheetsClient struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	limiter       *rate.Limiter
	logger        *zap.Logger
}

// NewSheetsClient connects to the Sheets API with a credentials file.
func NewSheetsClient(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*SheetsClient, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WritesPerSecond <= 0 {
		cfg.WritesPerSecond = defaultSheetsWriteQPS
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}

	return &SheetsClient{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		limiter:       rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), 1),
		logger:        logger,
	}, nil
}

// URL returns the browser address of the spreadsheet.
func (c *SheetsClient) URL() string {
	return spreadsheetURLPrefix + c.spreadsheetID
}

// GetRange returns the rows of an A1 range.
func (c *SheetsClient) GetRange(ctx context.Context, ref string) ([][]any, error) {
	resp, err := c.values.Get(c.spreadsheetID, ref).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "get range %s", ref)
	}
	return resp.Values, nil
}

// SetValue writes a single cell.
func (c *SheetsClient) SetValue(ctx context.Context, ref string, value any) error {
	return c.SetRange(ctx, ref, [][]any{{value}})
}

// SetRange overwrites a range with rows.
func (c *SheetsClient) SetRange(ctx context.Context, ref string, rows [][]any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "sheets write throttle")
	}

	resp, err := c.values.Update(c.spreadsheetID, ref, &sheets.ValueRange{Values: rows}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return errors.Wrapf(err, "update range %s", ref)
	}

	c.logger.Debug("sheet range updated",
		zap.String("range", resp.UpdatedRange),
		zap.Int64("cells", resp.UpdatedCells))

	return nil
}

// Append adds rows after the table found at ref and returns the table range
// the rows were appended to, e.g. "Values!A1:C41".
func (c *SheetsClient) Append(ctx context.Context, ref string, rows [][]any) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "sheets write throttle")
	}

	resp, err := c.values.Append(c.spreadsheetID, ref, &sheets.ValueRange{Values: rows}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Wrapf(err, "append to %s", ref)
	}

	return resp.TableRange, nil
}

// Clear empties a range, keeping formatting.
func (c *SheetsClient) Clear(ctx context.Context, ref string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "sheets write throttle")
	}

	if _, err := c.values.Clear(c.spreadsheetID, ref, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "clear range %s", ref)
	}

	return nil
}
