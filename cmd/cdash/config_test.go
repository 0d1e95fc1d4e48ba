package main

import (
	"testing"

	"github.com/matsen/crimedash/internal/config"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"top-n", "top-n"},
		{"top_n", "top-n"},
		{"Value_Field", "value-field"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeKey(tt.input); got != tt.want {
				t.Errorf("normalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"layers", "Year, Crime_Category", "Year,Crime_Category", false},
		{"value-field", "Crime_Count", "Crime_Count", false},
		{"start-year", "2021", "2021", false},
		{"end-year", "twenty", "", true},
		{"top-n", "5", "5", false},
		{"namespace-layers", "true", "true", false},
		{"namespace-layers", "yes please", "", true},
		{"db-path", "db/crime.db", "db/crime.db", false},
		{"pdf-root", "/tmp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.Default()
			err := setConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setConfigValue() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, ok := configValue(cfg, tt.key)
			if !ok || got != tt.want {
				t.Errorf("configValue(%q) = %q, %v, want %q", tt.key, got, ok, tt.want)
			}
		})
	}
}

func TestConfigRows(t *testing.T) {
	rows := configRows(config.Default())
	if len(rows) != len(configKeys) {
		t.Fatalf("got %d rows, want %d", len(rows), len(configKeys))
	}
	if rows[1][0] != "layers" || rows[1][1] != "District,Year,Crime_Category" {
		t.Errorf("layers row = %v", rows[1])
	}
}
