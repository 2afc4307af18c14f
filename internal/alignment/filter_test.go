package alignment

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

func labelSet(variable string, labels []string, values []float64) model.VariableLabelSet {
	de := make([]string, len(labels))
	for i, l := range labels {
		de[i] = l + " (de)"
	}
	return model.VariableLabelSet{
		Variable: variable,
		Dataset:  "ds-" + variable,
		Period:   "2020",
		Labels: model.LabelTriple{
			Labels:   labels,
			LabelsDE: de,
			Values:   values,
		},
	}
}

func TestFilterMissing_DropsNonPositive(t *testing.T) {
	t.Parallel()

	in := labelSet("a", []string{"[-1] Missing", "[1] Yes"}, []float64{-1, 10})
	got := FilterMissing(in)

	want := model.LabelTriple{
		Labels:   []string{"[1] Yes"},
		LabelsDE: []string{"[1] Yes (de)"},
		Values:   []float64{10},
	}
	if diff := cmp.Diff(want, got.Labels); diff != "" {
		t.Fatalf("filtered triple mismatch (-want +got):\n%s", diff)
	}
	if NormalizeLabel(got.Labels.Labels[0]) != "Yes" {
		t.Fatalf("unexpected normalized label: %q", NormalizeLabel(got.Labels.Labels[0]))
	}
	if got.Variable != "a" || got.Dataset != "ds-a" || got.Period != "2020" {
		t.Fatalf("identity fields changed: %+v", got)
	}
}

func TestFilterMissing_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := labelSet("a", []string{"[1] Yes", "[-2] No answer", "[2] No", "[0] Zero"}, []float64{3, -2, 4, 0})
	before := labelSet("a", []string{"[1] Yes", "[-2] No answer", "[2] No", "[0] Zero"}, []float64{3, -2, 4, 0})

	got := FilterMissing(in)
	if diff := cmp.Diff(before, in); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
	if len(got.Labels.Values) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Labels.Values))
	}

	got.Labels.Labels[0] = "changed"
	if in.Labels.Labels[0] != "[1] Yes" {
		t.Fatalf("filtered set aliases input slice")
	}
}

func TestFilterMissing_AllMissing(t *testing.T) {
	t.Parallel()

	got := FilterMissing(labelSet("a", []string{"[-1] a", "[-2] b"}, []float64{-1, -2}))
	if got.Labels.Len() != 0 || len(got.Labels.LabelsDE) != 0 || len(got.Labels.Values) != 0 {
		t.Fatalf("expected empty triple, got %+v", got.Labels)
	}
}

func TestValidate_LengthMismatch(t *testing.T) {
	t.Parallel()

	set := labelSet("a", []string{"[1] Yes", "[2] No"}, []float64{1, 2})
	if err := Validate(set); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set.Labels.Values = []float64{1}
	err := Validate(set)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("want ErrLengthMismatch, got %v", err)
	}

	set = labelSet("b", []string{"[1] Yes"}, []float64{1})
	set.Labels.LabelsDE = nil
	if err := Validate(set); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("want ErrLengthMismatch for missing labels_de, got %v", err)
	}
}

func TestValidate_NonFiniteValues(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		set := labelSet("a", []string{"[1] Yes", "[2] No"}, []float64{1, v})
		if err := Validate(set); !errors.Is(err, ErrNonFiniteValue) {
			t.Fatalf("value %v: want ErrNonFiniteValue, got %v", v, err)
		}
	}
}
