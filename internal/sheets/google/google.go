package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/core"
	"saldo/internal/log"
	ports "saldo/internal/sheets"
)

// Ensure interface conformance
var (
	_ ports.Exporter          = (*Client)(nil)
	_ ports.TransactionLister = (*Client)(nil)
)

const (
	apiAttempts = 3
	apiDelay    = 2 * time.Second
)

// Options selects the spreadsheet and the service account used to reach it.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// retry tuning, overridden in tests
	attempts uint
	delay    time.Duration
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(opts.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	credentials, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", opts.SheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
		logger:        logger,
		attempts:      apiAttempts,
		delay:         apiDelay,
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
// The oauth2 transport is layered on top of it by the option package.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// EnsureHeader writes the header row when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:H1", c.sheetName)
	var resp *gsheet.ValueRange
	err := c.withRetry(ctx, "read header", func() (err error) {
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && isHeader(resp.Values[0]) {
		return nil
	}

	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	err = c.withRetry(ctx, "write header", func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	c.logger.InfoContext(ctx, "Wrote header row", "sheet", c.sheetName)
	return nil
}

// Upsert replaces the row holding tx.ID or appends a new one.
func (c *Client) Upsert(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.rowOf(ctx, tx.ID)
	if err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}

	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:H%d", c.sheetName, row, row)
		err = c.withRetry(ctx, "update row", func() error {
			_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
				ValueInputOption("USER_ENTERED").Context(ctx).Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "Updated sheet row", log.FieldTransactionID, tx.ID, "row", row)
		return nil
	}

	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	err = c.withRetry(ctx, "append row", func() error {
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheetName, err)
	}
	c.logger.DebugContext(ctx, "Appended sheet row", log.FieldTransactionID, tx.ID)
	return nil
}

// Remove deletes the row holding id.
func (c *Client) Remove(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.rowOf(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		c.logger.DebugContext(ctx, "Row already absent", log.FieldTransactionID, id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	err = c.withRetry(ctx, "delete row", func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	c.logger.DebugContext(ctx, "Deleted sheet row", log.FieldTransactionID, id, "row", row)
	return nil
}

// ListTransactions reads every exported row. Rows that fail to parse are
// logged and skipped.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	values, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for i, row := range values {
		if len(row) == 0 || (i == 0 && isHeader(row)) {
			continue
		}
		tx, err := parseTransactionRow(row)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping unreadable row", "row", i+1, log.FieldError, err)
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (c *Client) rowOf(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	var resp *gsheet.ValueRange
	err := c.withRetry(ctx, "find row", func() (err error) {
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return findRow(resp.Values, id), nil
}

func (c *Client) readAll(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	var resp *gsheet.ValueRange
	err := c.withRetry(ctx, "read rows", func() (err error) {
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	var ss *gsheet.Spreadsheet
	err := c.withRetry(ctx, "get spreadsheet", func() (err error) {
		ss, err = c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

// withRetry retries fn on rate limiting and transient server errors.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := c.attempts
	if attempts == 0 {
		attempts = apiAttempts
	}
	return retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn()
		},
		retry.RetryIf(isRetryable),
		retry.Attempts(attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WarnContext(ctx, "Sheets API call failed, retrying", log.FieldOperation, op, "attempt", n+1, log.FieldError, err)
		}),
	)
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
