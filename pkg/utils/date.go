package utils

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/markusmobius/go-dateparser"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

// TimestampLayout é o formato ISO-8601 com offset numérico esperado pelo endpoint de stats.
// Diferente de time.RFC3339, UTC sai como +00:00 e não como Z.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

func ParseDate(dateStr string) (*time.Time, error) {
	var date time.Time

	if dateStr != "" {
		incomingDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, err
		}

		date = incomingDate
	}

	return &date, nil
}

// ParseRelativeDate interpreta datas ISO ou em linguagem natural ("30 days ago", "yesterday")
// relativas a now e devolve apenas a data de calendário
func ParseRelativeDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if date, err := ParseDate(value); err == nil {
		return *date, nil
	}

	parsed, err := dateparser.Parse(&dateparser.Configuration{CurrentTime: now}, value)
	if err != nil {
		return time.Time{}, err
	}
	if parsed.Time.IsZero() {
		return time.Time{}, fmt.Errorf("could not parse date %q", value)
	}

	return CalendarDate(parsed.Time), nil
}

// CalendarDate descarta hora e fuso, mantendo ano/mês/dia à meia-noite UTC
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SplitDateRange divide [start, end] em blocos de no máximo maxChunkDays dias.
// Os limites são compartilhados entre blocos vizinhos porque o end_time do
// endpoint de stats é exclusivo.
func SplitDateRange(start, end time.Time, maxChunkDays int) ([]domain.DateChunk, error) {
	if maxChunkDays <= 0 {
		return nil, fmt.Errorf("max chunk days must be positive, got %d", maxChunkDays)
	}

	start, end = CalendarDate(start), CalendarDate(end)
	if start.After(end) {
		return nil, &domain.InvalidRangeError{Start: start, End: end}
	}

	var chunks []domain.DateChunk
	current := start
	for {
		next := current.AddDate(0, 0, maxChunkDays)
		if !next.Before(end) {
			chunks = append(chunks, domain.DateChunk{StartDate: current, EndDate: end})
			return chunks, nil
		}

		chunks = append(chunks, domain.DateChunk{StartDate: current, EndDate: next})
		current = next
	}
}

// NormalizeChunks converte os limites de cada bloco para meia-noite no fuso informado
func NormalizeChunks(chunks []domain.DateChunk, timezone string) ([]domain.TimeRange, error) {
	if timezone == "" || timezone == "Local" {
		return nil, &domain.UnknownTimezoneError{Timezone: timezone}
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, &domain.UnknownTimezoneError{Timezone: timezone, Err: err}
	}

	ranges := make([]domain.TimeRange, 0, len(chunks))
	for _, chunk := range chunks {
		ranges = append(ranges, domain.TimeRange{
			StartTime: localMidnight(chunk.StartDate, loc),
			EndTime:   localMidnight(chunk.EndDate, loc),
		})
	}

	return ranges, nil
}

func localMidnight(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
