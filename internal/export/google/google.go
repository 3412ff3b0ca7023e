// Package google exports ledger rows to a Google Sheets spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"contas/internal/core"
	"contas/internal/export"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.LedgerWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials, either:
//   - service account: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
//     or GOOGLE_APPLICATION_CREDENTIALS;
//   - OAuth user: GOOGLE_OAUTH_CLIENT_JSON/GOOGLE_OAUTH_CLIENT_FILE plus
//     GOOGLE_OAUTH_TOKEN_JSON/GOOGLE_OAUTH_TOKEN_FILE (bootstrap the token
//     with cmd/oauth-init).
//
// Optional: GOOGLE_SHEET_NAME (default "Lancamentos").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Lancamentos"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inlineJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inlineJSON == "" && credFile == "" {
		credFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		credentialsJSON = []byte(inlineJSON)
	case credFile != "":
		b, err := os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return newOAuthSheetsService(ctx)
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// newOAuthSheetsService builds the service from an OAuth client and a stored
// user token. cmd/oauth-init produces the token file.
func newOAuthSheetsService(ctx context.Context) (*gsheet.Service, error) {
	clientJSON, err := materialFromEnv("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	if clientJSON == nil {
		return nil, errors.New("missing Google credentials: set service account variables or GOOGLE_OAUTH_CLIENT_JSON/GOOGLE_OAUTH_CLIENT_FILE")
	}
	tokenJSON, err := materialFromEnv("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	if tokenJSON == nil {
		return nil, errors.New("missing OAuth token: set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE (run cmd/oauth-init first)")
	}

	oauthCfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}

	return gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &token)))
}

// materialFromEnv reads credential material from an inline-JSON variable or a
// file-path variable, preferring the inline form. A nil result with a nil
// error means neither variable is set.
func materialFromEnv(jsonKey, fileKey string) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv(jsonKey)); inline != "" {
		return []byte(inline), nil
	}
	if file := strings.TrimSpace(os.Getenv(fileKey)); file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fileKey, err)
		}
		return b, nil
	}
	return nil, nil
}

// AppendTransactions appends one row per record below the existing data.
func (c *Client) AppendTransactions(ctx context.Context, householdID string, records []core.Transaction) error {
	if len(records) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(records))
	for _, t := range records {
		parcela := ""
		if t.TotalParcelas > 0 {
			parcela = fmt.Sprintf("%d/%d", t.ParcelaAtual, t.TotalParcelas)
		}
		values = append(values, []interface{}{
			t.Date.String(),
			t.Description,
			t.Amount.Reais(),
			string(t.Type),
			parcela,
			t.Notes,
			t.ID,
		})
	}

	rangeA1 := c.sheetName + "!A:G"
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeA1, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append ledger rows: %w", err)
	}

	slog.InfoContext(ctx, "Appended ledger rows",
		"household_id", householdID,
		"rows", len(values),
		"sheet", c.sheetName)

	return nil
}
