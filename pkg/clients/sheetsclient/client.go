// Package sheetsclient wraps the Google Sheets API for publishing generated
// schedules.
package sheetsclient

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/mfenwick/oncall-roster/internal/config"
	"github.com/mfenwick/oncall-roster/pkg/utils"
)

// Client wraps the Google Sheets API client
type Client struct {
	service *sheets.Service
	token   *oauth2.Token
	ctx     context.Context
}

// NewClient creates a new Sheets client, performing the OAuth flow if needed
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)

	service, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
		token:   token,
		ctx:     ctx,
	}, nil
}

// Token returns the OAuth token for reuse by other clients
func (c *Client) Token() *oauth2.Token {
	return c.token
}

// UpdateValues overwrites a range with the given values
func (c *Client) UpdateValues(spreadsheetID, sheetRange string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{Values: values}
	_, err := c.service.Spreadsheets.Values.
		Update(spreadsheetID, sheetRange, valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to update values: %w", err)
	}
	return nil
}

// EnsureSheet returns the sheet with the given title, creating it if needed
func (c *Client) EnsureSheet(spreadsheetID, sheetTitle string) (int64, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetTitle {
			return sheet.Properties.SheetId, nil
		}
	}

	req := &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: sheetTitle,
			},
		},
	}
	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{req},
	}

	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdateRequest).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unexpected response from create sheet")
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}
