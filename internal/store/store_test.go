package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "labelalign.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleResultSet() model.ResultSet {
	return model.ResultSet{Results: []model.VariableLabelSet{
		{
			Variable: "soep-core-v35-pl-plh0182",
			Dataset:  "pl",
			Period:   "2018",
			Labels: model.LabelTriple{
				Labels:   []string{"[-1] no answer", "[1] Yes", "[2] No"},
				LabelsDE: []string{"[-1] keine Angabe", "[1] Ja", "[2] Nein"},
				Values:   []float64{-1, 120, 80},
			},
		},
		{
			Variable: "soep-core-v35-pl-plh0182-empty",
			Dataset:  "pl",
			Period:   "2019",
			Labels: model.LabelTriple{
				Labels:   []string{},
				LabelsDE: []string{},
				Values:   []float64{},
			},
		},
		{
			Variable: "soep-core-v34-pl-plh0182",
			Dataset:  "pl",
			Period:   "2017",
			Labels: model.LabelTriple{
				Labels:   []string{"[1] Yes", "[3] Maybe"},
				LabelsDE: []string{"[1] Ja", "[3] Vielleicht"},
				Values:   []float64{99, 4},
			},
		},
	}}
}

func TestResultSet_SaveAndLoadPreservesOrder(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	rs := sampleResultSet()

	saved, err := st.SaveResultSet("plh0182", "soep-core-v35-pl-plh0182", rs)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" || saved.VariableCount != 3 {
		t.Fatalf("unexpected summary: %+v", saved)
	}

	summary, got, err := st.GetResultSet(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if summary.Name != "plh0182" || summary.MainVariable != "soep-core-v35-pl-plh0182" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if diff := cmp.Diff(rs, got); diff != "" {
		t.Fatalf("result set mismatch (-want +got):\n%s", diff)
	}
}

func TestResultSet_ListDeleteAndNotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	a, err := st.SaveResultSet("a", "", sampleResultSet())
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	if _, err := st.SaveResultSet("b", "", sampleResultSet()); err != nil {
		t.Fatalf("save b: %v", err)
	}

	list, err := st.ListResultSets()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 result sets, got %d", len(list))
	}

	if err := st.SetMainVariable(a.ID, "soep-core-v34-pl-plh0182"); err != nil {
		t.Fatalf("set main: %v", err)
	}
	summary, err := st.GetResultSetSummary(a.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.MainVariable != "soep-core-v34-pl-plh0182" {
		t.Fatalf("main variable not updated: %s", summary.MainVariable)
	}

	if err := st.DeleteResultSet(a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := st.GetResultSet(a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if err := st.DeleteResultSet(a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
	if err := st.SetMainVariable("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown id, got %v", err)
	}

	n, err := st.CountResultSets()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 result set, got %d", n)
	}
}

func TestResultSet_RejectsLengthMismatch(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	rs := sampleResultSet()
	rs.Results[0].Labels.Values = rs.Results[0].Labels.Values[:1]

	if _, err := st.SaveResultSet("bad", "", rs); !errors.Is(err, alignment.ErrLengthMismatch) {
		t.Fatalf("want ErrLengthMismatch, got %v", err)
	}
	n, err := st.CountResultSets()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("failed save must roll back, found %d result sets", n)
	}
}

func TestImportLogs(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	id, err := st.CreateImportLog("labels.json", "json", 512)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	failedID, err := st.CreateImportLog("broken.xlsx", "xlsx", 64)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := st.FinishImportLog(id, "rs-1", 3, ImportStatusSuccess, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := st.FinishImportLog(failedID, "", 0, ImportStatusFailed, "bad header"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	logs, err := st.ListImportLogs(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].ID != failedID || logs[0].Status != ImportStatusFailed || logs[0].ErrorMessage != "bad header" {
		t.Fatalf("unexpected newest log: %+v", logs[0])
	}
	if logs[1].ResultSetID != "rs-1" || logs[1].VariableCount != 3 || logs[1].CompletedAt == nil {
		t.Fatalf("unexpected first log: %+v", logs[1])
	}

	limited, err := st.ListImportLogs(1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 log, got %d", len(limited))
	}
}

func TestConfig_GetSet(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	if _, err := st.GetConfig("export.language"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if got := st.GetConfigOr("export.language", "en"); got != "en" {
		t.Fatalf("unexpected fallback: %s", got)
	}
	if err := st.SetConfig("export.language", "de"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.SetConfig("export.language", "en"); err != nil {
		t.Fatalf("set again: %v", err)
	}
	all, err := st.GetAllConfig()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"export.language": "en"}, all); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}
