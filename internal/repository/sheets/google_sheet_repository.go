package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/remitos/internal/config"
)

// ErrMissingCredentials indicates no service credential was configured for the ledger.
var ErrMissingCredentials = errors.New("google sheets credentials are not configured")

// Repository defines the ledger operations supported by the Google Sheets adapter.
// Every call targets the spreadsheet identified by the canonical ledger ID.
type Repository interface {
	AppendRow(ctx context.Context, spreadsheetID, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service *sheetsapi.Service
	logger  *zap.Logger
}

type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// It returns ErrMissingCredentials without touching the network when no credential is configured.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	credential, err := credentialOption(cfg)
	if err != nil {
		return nil, err
	}

	service, err := sheetsapi.NewService(ctx, credential, option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service: service,
		logger:  logger,
	}, nil
}

func credentialOption(cfg config.SheetsConfig) (option.ClientOption, error) {
	switch {
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		raw, err := json.Marshal(serviceAccountKey{
			Type:        "service_account",
			ClientEmail: cfg.ClientEmail,
			PrivateKey:  cfg.PrivateKey,
			TokenURI:    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, fmt.Errorf("encode service account key: %w", err)
		}
		return option.WithCredentialsJSON(raw), nil
	case cfg.CredentialsPath != "":
		return option.WithCredentialsFile(cfg.CredentialsPath), nil
	default:
		return nil, ErrMissingCredentials
	}
}

// AppendRow appends the provided values after the last row of the supplied range.
// INSERT_ROWS keeps existing rows untouched and inherits their formatting.
func (r *GoogleSheetRepository) AppendRow(ctx context.Context, spreadsheetID, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	r.logger.Debug("row appended to sheet",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("range", sheetRange),
		zap.String("updated_range", updated))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}
