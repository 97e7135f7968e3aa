package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/itemsearch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	cat := "Electronics"
	q, err := New("  blue bicycle ", 3, &cat, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "  blue bicycle " {
		t.Errorf("Text() = %q, want verbatim input", q.Text())
	}
	if q.TopK() != 3 || q.MatchCount() != 6 {
		t.Errorf("TopK()=%d MatchCount()=%d", q.TopK(), q.MatchCount())
	}
	if q.Category() == nil || *q.Category() != "Electronics" {
		t.Errorf("Category() = %v", q.Category())
	}

	cat = "changed"
	if *q.Category() != "Electronics" {
		t.Error("category mutation leaked into query")
	}
}

func TestNew_ThresholdNotClamped(t *testing.T) {
	for _, th := range []float64{-1, 0, 1.5} {
		q, err := New("milk", 1, nil, th)
		if err != nil {
			t.Fatalf("threshold %v: unexpected error: %v", th, err)
		}
		if q.Threshold() != th {
			t.Errorf("Threshold() = %v, want %v", q.Threshold(), th)
		}
	}
}

func TestNew_EmptyCategoryMeansNoFilter(t *testing.T) {
	empty := ""
	q, err := New("milk", 5, &empty, DefaultSimilarityThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Category() != nil {
		t.Errorf("Category() = %q, want nil", *q.Category())
	}
}

func TestNew_LongQueryKeptVerbatim(t *testing.T) {
	text := strings.Repeat("a", 5000)
	q, err := New(text, 10, nil, DefaultSimilarityThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != text {
		t.Error("long query was altered")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
		topK int
	}{
		{"empty query", "", 10},
		{"blank query", "   ", 10},
		{"zero topK", "milk", 0},
		{"negative topK", "milk", -2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.text, tc.topK, nil, DefaultSimilarityThreshold); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
