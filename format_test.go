package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{int64(2.5 * 1024 * 1024 * 1024), "2.5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3.0 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes), "bytes=%d", tt.bytes)
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", formatTime(time.Time{}))

	now := time.Now()
	sameYear := time.Date(now.Year(), 6, 20, 14, 45, 0, 0, time.UTC)
	assert.Equal(t, "Jun 20 14:45", formatTime(sameYear))

	otherYear := time.Date(now.Year()-2, 6, 20, 14, 45, 0, 0, time.UTC)
	assert.Contains(t, formatTime(otherYear), "Jun 20")
	assert.NotContains(t, formatTime(otherYear), "14:45")
}

func TestPrintTable_PipedOutputIsTabSeparated(t *testing.T) {
	// Tests never run on a terminal, so the tab-separated branch applies.
	var buf bytes.Buffer
	printTable(&buf, []string{"ID", "NAME"}, [][]string{
		{"d1", "report.pdf"},
		{"d2", "notes.txt"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{"ID\tNAME", "d1\treport.pdf", "d2\tnotes.txt"}, lines)
}

func TestRequireUUID(t *testing.T) {
	assert.NoError(t, requireUUID("0f8fad5b-d9cb-469f-a165-70867728950e", "document"))
	assert.Error(t, requireUUID("d1", "document"))
	assert.Error(t, requireUUID("", "document"))
}

func TestParseExpiry(t *testing.T) {
	ts, err := parseExpiry("")
	assert.NoError(t, err)
	assert.True(t, ts.IsZero())

	ts, err = parseExpiry("2024-12-31T23:59:59Z")
	assert.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())

	_, err = parseExpiry("next tuesday")
	assert.Error(t, err)
}
