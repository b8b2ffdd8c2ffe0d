package main

import (
	"strings"
	"testing"
)

func TestInferAlignment(t *testing.T) {
	rows := [][]string{
		{"click", "12", "1.5 KiB", ""},
		{"hover", "7", "900 B", "x"},
		{"tick", "", "", "y"},
	}
	tests := []struct {
		col  int
		want columnAlignment
	}{
		{0, alignLeft},
		{1, alignRight},
		{2, alignRight},
		{3, alignLeft},
		{9, alignLeft},
	}
	for _, tt := range tests {
		if got := inferAlignment(rows, tt.col); got != tt.want {
			t.Errorf("column %d: got %v, want %v", tt.col, got, tt.want)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Source", "Count", "Detail"}, [][]string{{"click.wav", "3"}, {"hover.wav"}}, nil)
	for _, want := range []string{"SOURCE", "COUNT", "click.wav", "hover.wav"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if renderTable(nil, [][]string{{"x"}}, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
