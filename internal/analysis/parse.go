package analysis

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RawRow is one source record keyed by column label. Values are strings for
// CSV input and may already be typed (numbers, times) for spreadsheet input.
type RawRow map[string]any

// ParseOptions controls row parsing.
type ParseOptions struct {
	Locale Locale
	// Location is the zone publish times are interpreted in. Nil means time.Local.
	Location *time.Location
	// Delimiter for CSV input. If 0, ',' is used unless the header only splits on ';'.
	Delimiter rune
}

// DefaultParseOptions returns pt-BR parsing in the local zone.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Locale: LocalePTBR, Location: time.Local}
}

// ParseStats reports how many rows were read and how many were kept.
type ParseStats struct {
	Rows    int `json:"rows"`
	Parsed  int `json:"parsed"`
	Dropped int `json:"dropped"`
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseRows converts raw rows into posts. Rows whose publish time cannot be
// parsed are dropped; every other malformed cell degrades to a zero value.
func ParseRows(rows []RawRow, opt ParseOptions) ([]Post, ParseStats) {
	loc := opt.Locale
	if loc.Name == "" {
		loc = LocalePTBR
	}
	tz := opt.Location
	if tz == nil {
		tz = time.Local
	}
	cols := loc.Columns
	stats := ParseStats{Rows: len(rows)}
	out := make([]Post, 0, len(rows))
	for i, row := range rows {
		published, ok := parseDate(row[cols.PublishedAt], loc, tz)
		if !ok {
			stats.Dropped++
			continue
		}
		id := textCell(row[cols.ID])
		if id == "" {
			id = fmt.Sprintf("post-%d", i)
		}
		postType := textCell(row[cols.PostType])
		if postType == "" {
			postType = loc.DefaultType
		}
		in := PostInput{
			ID:          id,
			AccountID:   textCell(row[cols.AccountID]),
			Username:    textCell(row[cols.Username]),
			AccountName: textCell(row[cols.AccountName]),
			Description: textCell(row[cols.Description]),
			PostType:    postType,
			Duration:    ParseNumber(row[cols.Duration]),
			Permalink:   textCell(row[cols.Permalink]),
			PublishedAt: published,
			Views:       countCell(row[cols.Views]),
			Reach:       countCell(row[cols.Reach]),
			Likes:       countCell(row[cols.Likes]),
			Shares:      countCell(row[cols.Shares]),
			Follows:     countCell(row[cols.Follows]),
			Comments:    countCell(row[cols.Comments]),
			Saves:       countCell(row[cols.Saves]),
		}
		out = append(out, NewPost(in, loc))
	}
	stats.Parsed = len(out)
	return out, stats
}

// ParseCSV reads a header row followed by one record per post.
func ParseCSV(r io.Reader, opt ParseOptions) ([]Post, ParseStats, error) {
	rows, err := ReadCSVRows(r, opt.Delimiter)
	if err != nil {
		return nil, ParseStats{}, err
	}
	posts, stats := ParseRows(rows, opt)
	return posts, stats, nil
}

// ReadCSVRows decodes CSV text into header-keyed rows. Blank lines are skipped.
func ReadCSVRows(r io.Reader, delim rune) ([]RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	if delim == 0 {
		delim = sniffDelimiter(text)
	}
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	var rows []RawRow
	line := 1
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		line++
		if blankRecord(rec) {
			continue
		}
		row := make(RawRow, len(header))
		for j, h := range header {
			if j < len(rec) {
				row[h] = rec[j]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffDelimiter picks ';' when the header line has semicolons but no commas.
func sniffDelimiter(text string) rune {
	first := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first = text[:i]
	}
	if strings.Contains(first, ";") && !strings.Contains(first, ",") {
		return ';'
	}
	if strings.Contains(first, "\t") && !strings.Contains(first, ",") {
		return '\t'
	}
	return ','
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var (
	numericStrip  = regexp.MustCompile(`[^\d.\-]`)
	numericPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// ParseNumber converts a cell into a float. Strings keep only digits, '.' and
// '-' and the longest leading number is used. Anything else yields 0.
func ParseNumber(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		f, _ = x.Float64()
	case bool:
		return 0
	default:
		cleaned := numericStrip.ReplaceAllString(fmt.Sprint(x), "")
		m := numericPrefix.FindString(cleaned)
		if m == "" {
			return 0
		}
		p, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		f = p
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func countCell(v any) int64 {
	f := ParseNumber(v)
	if f <= 0 {
		return 0
	}
	return int64(f)
}

func textCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// parseDate accepts the locale layouts first, then ISO variants emitted by
// spreadsheet sources.
func parseDate(v any, loc Locale, tz *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.In(tz), true
	case nil:
		return time.Time{}, false
	}
	s := strings.TrimSpace(textCell(v))
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range loc.DateLayouts {
		if t, err := time.ParseInLocation(l, s, tz); err == nil {
			return t, true
		}
	}
	for _, l := range isoLayouts {
		if t, err := time.ParseInLocation(l, s, tz); err == nil {
			return t.In(tz), true
		}
	}
	return time.Time{}, false
}
