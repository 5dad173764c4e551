package analysis

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

const ptHeader = "Identificação do post,Descrição,Tipo de post,Duração (s),Horário de publicação,Visualizações,Alcance,Curtidas,Comentários,Compartilhamentos,Salvamentos,Seguimentos"

func scenarioCSV() string {
	return strings.Join([]string{
		ptHeader,
		"p1,primeiro,Reel do Instagram,12,01/01/2024 10:00,100,50,5,1,0,0,0",
		"p2,segundo,Reel do Instagram,45,02/01/2024 14:00,200,100,20,2,1,1,0",
		"p3,terceiro,Reel do Instagram,0,03/01/2024 09:00,50,n/a,0,0,0,0,0",
	}, "\n")
}

func utcOptions() ParseOptions {
	return ParseOptions{Locale: LocalePTBR, Location: time.UTC}
}

func TestParseCSVScenario(t *testing.T) {
	posts, stats, err := ParseCSV(strings.NewReader(scenarioCSV()), utcOptions())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(posts) != 3 || stats.Parsed != 3 || stats.Dropped != 0 {
		t.Fatalf("expected 3 posts, got %d (%+v)", len(posts), stats)
	}
	if posts[2].Reach != 0 || posts[2].EngagementRate != 0 {
		t.Fatalf("post 3 should have zero reach and rate: %+v", posts[2])
	}
	if posts[1].EngagementRate != 24 {
		t.Fatalf("post 2 engagement rate: got %v", posts[1].EngagementRate)
	}
	want := time.Date(2024, time.January, 2, 14, 0, 0, 0, time.UTC)
	if !posts[1].PublishedAt.Equal(want) {
		t.Fatalf("published at: got %v want %v", posts[1].PublishedAt, want)
	}
	views, _ := Project(posts, MetricViews)
	s := Summarize(views)
	if s.Total != 350 || s.Median != 100 || s.Min != 50 || s.Max != 200 {
		t.Fatalf("summary: %+v", s)
	}
	if diff := s.Average - 116.67; diff > 0.01 || diff < -0.01 {
		t.Fatalf("average: %v", s.Average)
	}
	if diff := s.StdDev - 62.36; diff > 0.01 || diff < -0.01 {
		t.Fatalf("stddev: %v", s.StdDev)
	}
}

func TestParseRowsIsIdempotent(t *testing.T) {
	rows, err := ReadCSVRows(strings.NewReader(scenarioCSV()), 0)
	if err != nil {
		t.Fatalf("ReadCSVRows: %v", err)
	}
	a, _ := ParseRows(rows, utcOptions())
	b, _ := ParseRows(rows, utcOptions())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parse is not deterministic")
	}
}

func TestParseRowsDropsBadDates(t *testing.T) {
	rows := []RawRow{
		{"Horário de publicação": "01/01/2024 10:00", "Visualizações": "10"},
		{"Horário de publicação": "not a date", "Visualizações": "10"},
		{"Horário de publicação": "", "Visualizações": "10"},
		{"Horário de publicação": "32/13/2024 10:00", "Visualizações": "10"},
		{"Horário de publicação": "2024-02-03T08:30:00", "Visualizações": "10"},
		{"Horário de publicação": time.Date(2024, 2, 4, 9, 0, 0, 0, time.UTC), "Visualizações": 10.0},
		{"Visualizações": "10"},
	}
	posts, stats := ParseRows(rows, utcOptions())
	if len(posts) != 3 || stats.Dropped != 4 || stats.Rows != 7 {
		t.Fatalf("got %d posts, stats %+v", len(posts), stats)
	}
	if posts[1].Hour != 8 || posts[1].PublishedAt.Minute() != 30 {
		t.Fatalf("ISO fallback parsed wrong: %v", posts[1].PublishedAt)
	}
}

func TestParseRowsDefaults(t *testing.T) {
	rows := []RawRow{
		{"Horário de publicação": "01/01/2024"},
		{"Horário de publicação": "01/01/2024", "Identificação do post": "keep", "Tipo de post": "Carrossel"},
	}
	posts, _ := ParseRows(rows, utcOptions())
	if posts[0].ID != "post-0" || posts[0].PostType != "Reel do Instagram" {
		t.Fatalf("defaults not applied: %+v", posts[0])
	}
	if posts[1].ID != "keep" || posts[1].PostType != "Carrossel" {
		t.Fatalf("explicit values overwritten: %+v", posts[1])
	}
	if posts[0].Views != 0 || posts[0].Description != "" {
		t.Fatalf("missing columns should default to zero values")
	}
}

func TestParseRowsRateBounds(t *testing.T) {
	rows := []RawRow{
		{"Horário de publicação": "01/01/2024 10:00", "Visualizações": "0", "Alcance": "10", "Curtidas": "3"},
		{"Horário de publicação": "01/01/2024 11:00", "Visualizações": "10", "Alcance": "0", "Curtidas": "3"},
		{"Horário de publicação": "01/01/2024 12:00", "Visualizações": "-5", "Alcance": "abc", "Curtidas": "-3"},
	}
	posts, _ := ParseRows(rows, utcOptions())
	for _, p := range posts {
		if p.EngagementRate < 0 || p.ReachRate < 0 {
			t.Fatalf("negative rate: %+v", p)
		}
		if p.Reach == 0 && p.EngagementRate != 0 {
			t.Fatalf("engagement rate with zero reach: %+v", p)
		}
		if p.Views == 0 && p.ReachRate != 0 {
			t.Fatalf("reach rate with zero views: %+v", p)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{"", 0},
		{"abc", 0},
		{"1,234", 1234},
		{"12.5s", 12.5},
		{" 42 ", 42},
		{"-7", -7},
		{"1.2.3", 1.2},
		{int64(9), 9},
		{3.5, 3.5},
		{true, 0},
	}
	for _, c := range cases {
		if got := ParseNumber(c.in); got != c.want {
			t.Fatalf("ParseNumber(%#v)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestReadCSVRowsSemicolonAndBOM(t *testing.T) {
	text := "\ufeffIdentificação do post;Visualizações\n\na;10\nb;20\n"
	rows, err := ReadCSVRows(strings.NewReader(text), 0)
	if err != nil {
		t.Fatalf("ReadCSVRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1]["Visualizações"] != "20" || rows[0]["Identificação do post"] != "a" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestReadCSVRowsEmpty(t *testing.T) {
	rows, err := ReadCSVRows(strings.NewReader(""), 0)
	if err != nil || rows != nil {
		t.Fatalf("expected no rows and no error, got %v %v", rows, err)
	}
}

func TestParseEnglishLocale(t *testing.T) {
	text := "Post ID,Publish time,Views,Reach\nz,01/31/2024 18:05,300,150\n"
	posts, _, err := ParseCSV(strings.NewReader(text), ParseOptions{Locale: LocaleEN, Location: time.UTC})
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(posts) != 1 || posts[0].DayName != "Wednesday" || posts[0].Period != PeriodEvening {
		t.Fatalf("unexpected: %+v", posts)
	}
}
