package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
)

// DefaultSheetRange covers the export's columns on the first sheet.
const DefaultSheetRange = "A:Z"

// SheetsSource reads a range from a Google spreadsheet with a service account.
type SheetsSource struct {
	SpreadsheetID string
	// Range in A1 notation, optionally prefixed with a sheet name ("Posts!A:Z").
	Range string
	// CredentialsJSON takes precedence over CredentialsFile. With neither set
	// the client falls back to Application Default Credentials.
	CredentialsJSON string
	CredentialsFile string
	// Options are appended to the client options, e.g. an endpoint override.
	Options []option.ClientOption
}

func (s *SheetsSource) Name() string {
	return "sheets:" + s.SpreadsheetID + "/" + s.rangeOrDefault()
}

func (s *SheetsSource) rangeOrDefault() string {
	if strings.TrimSpace(s.Range) == "" {
		return DefaultSheetRange
	}
	return s.Range
}

func (s *SheetsSource) clientOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	switch {
	case strings.TrimSpace(s.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(s.CredentialsJSON)))
	case strings.TrimSpace(s.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(s.CredentialsFile))
	}
	return append(opts, s.Options...)
}

func (s *SheetsSource) Rows(ctx context.Context) ([]analysis.RawRow, error) {
	if strings.TrimSpace(s.SpreadsheetID) == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	resp, err := svc.Spreadsheets.Values.Get(s.SpreadsheetID, s.rangeOrDefault()).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %s: %w", s.SpreadsheetID, err)
	}
	return rowsFromGrid(resp.Values), nil
}

// SpreadsheetID extracts the id from a docs.google.com URL, or returns the
// input when it already is one.
func SpreadsheetID(ref string) string {
	ref = strings.TrimSpace(ref)
	const marker = "/spreadsheets/d/"
	i := strings.Index(ref, marker)
	if i < 0 {
		return ref
	}
	id := ref[i+len(marker):]
	if j := strings.IndexAny(id, "/?#"); j >= 0 {
		id = id[:j]
	}
	return id
}
