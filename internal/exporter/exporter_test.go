package exporter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/locale"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

func alignedSample(t *testing.T) *model.AlignedResult {
	t.Helper()

	rs := model.ResultSet{Results: []model.VariableLabelSet{
		{
			Variable: "A",
			Period:   "2018",
			Labels: model.LabelTriple{
				Labels:   []string{"[1] Yes", "[2] No"},
				LabelsDE: []string{"[1] Ja", "[2] Nein"},
				Values:   []float64{10, 5},
			},
		},
		{
			Variable: "B",
			Period:   "2019",
			Labels: model.LabelTriple{
				Labels:   []string{"[3] Yes", "[4] Maybe"},
				LabelsDE: []string{"[3] Ja", "[4] Vielleicht"},
				Values:   []float64{7, 2},
			},
		},
	}}
	res, err := alignment.Align(rs, "A")
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	return res
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	// 空单元格可能保留在行尾，比较前去掉
	for i, row := range rows {
		for len(row) > 0 && row[len(row)-1] == "" {
			row = row[:len(row)-1]
		}
		rows[i] = row
	}
	return rows
}

func TestWriteXLSX_Grid(t *testing.T) {
	t.Parallel()

	var progress []int
	var buf bytes.Buffer
	err := WriteXLSX(&buf, alignedSample(t), Options{
		SheetName: "plh0182",
		Language:  locale.German,
		Progress:  func(p ProgressEvent) { progress = append(progress, p.Percent) },
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	want := [][]string{
		{"Kategorie", "B", "A"},
		{"Zeitraum", "2019", "2018"},
		{"[1] Ja", "7", "10"},
		{"[2] Nein", "", "5"},
		{"[4] Vielleicht", "2"},
	}
	if diff := cmp.Diff(want, readRows(t, buf.Bytes(), "plh0182")); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Fatalf("progress must end at 100: %v", progress)
	}
}

func TestWriteXLSX_EnglishDefaultSheet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, alignedSample(t), Options{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows := readRows(t, buf.Bytes(), "Labels")
	if rows[0][0] != "Category" || rows[2][0] != "Yes" || rows[4][0] != "Maybe" {
		t.Fatalf("unexpected english grid: %v", rows)
	}
}

func TestWriteXLSX_NilResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil, Options{}); !errors.Is(err, ErrNilResult) {
		t.Fatalf("want ErrNilResult, got %v", err)
	}
}

func TestContentDisposition(t *testing.T) {
	t.Parallel()

	got := ContentDisposition("plh0182-Zufriedenheit-ä.xlsx")
	want := "attachment; filename=\"plh0182-Zufriedenheit-_.xlsx\"; filename*=UTF-8''plh0182-Zufriedenheit-%C3%A4.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestValidateSheetName(t *testing.T) {
	t.Parallel()

	if got, err := ValidateSheetName("  plh0182 "); err != nil || got != "plh0182" {
		t.Fatalf("ValidateSheetName trims: got=%q err=%v", got, err)
	}
	for _, bad := range []string{"", "   ", "a/b", "x[1]", "what?", strings.Repeat("ä", 32)} {
		if _, err := ValidateSheetName(bad); !errors.Is(err, ErrInvalidSheetName) {
			t.Fatalf("ValidateSheetName(%q): want ErrInvalidSheetName, got %v", bad, err)
		}
	}
}
