package pagination

import (
	"testing"
	"time"
)

func TestFormatCursor(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "whole seconds",
			in:   time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "2022-01-01T00:00:00",
		},
		{
			name: "microseconds kept",
			in:   time.Date(2022, 1, 1, 10, 11, 12, 345000000, time.UTC),
			want: "2022-01-01T10:11:12.345000",
		},
		{
			name: "wall clock kept, zone dropped",
			in:   time.Date(2023, 6, 30, 23, 59, 59, 0, time.FixedZone("CEST", 2*3600)),
			want: "2023-06-30T23:59:59",
		},
		{
			name: "sub-microsecond truncated",
			in:   time.Date(2022, 1, 1, 0, 0, 0, 999, time.UTC),
			want: "2022-01-01T00:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCursor(tt.in); got != tt.want {
				t.Errorf("FormatCursor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParams(t *testing.T) {
	cursor := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		perPage int
		page    int
		cursor  *time.Time
		want    string
	}{
		{
			name: "first page full table",
			page: 1,
			want: "order=asc&per_page=100",
		},
		{
			name: "second page full table",
			page: 2,
			want: "order=asc&page=2&per_page=100",
		},
		{
			name:   "first page incremental",
			page:   1,
			cursor: &cursor,
			want:   "after=2022-01-01T00%3A00%3A00&date_query_column=post_modified&modified_after=2022-01-01T00%3A00%3A00&order=asc&per_page=100",
		},
		{
			name:   "third page incremental",
			page:   3,
			cursor: &cursor,
			want:   "after=2022-01-01T00%3A00%3A00&date_query_column=post_modified&modified_after=2022-01-01T00%3A00%3A00&order=asc&page=3&per_page=100",
		},
		{
			name:    "custom page size",
			perPage: 25,
			page:    1,
			want:    "order=asc&per_page=25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Params(tt.perPage, tt.page, tt.cursor).Encode()
			if got != tt.want {
				t.Errorf("Params().Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}
