package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/medportal/medassist/internal/model"
)

type trendsIn struct {
	Region    string `json:"region"`
	Timeframe string `json:"timeframe"`
}

type trendsOut struct {
	Trends []struct {
		Disease   string `json:"disease"`
		Trend     string `json:"trend"`
		CaseCount int    `json:"caseCount"`
		Summary   string `json:"summary"`
	} `json:"trends"`
	OverallSummary string `json:"overallSummary"`
}

func TestBind_Invoke(t *testing.T) {
	exec := newExecutor(t, &stubModel{raw: trendsJSON})
	trends := Bind[trendsIn, trendsOut](exec, "diseaseTrends")

	if trends.Name() != "diseaseTrends" {
		t.Errorf("Name = %q", trends.Name())
	}

	out, err := trends.Invoke(context.Background(), trendsIn{Region: "India", Timeframe: "last 30 days"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(out.Trends) != 2 {
		t.Fatalf("trends = %d, want 2", len(out.Trends))
	}
	if out.Trends[0].Disease != "Dengue" || out.Trends[0].CaseCount != 1240 {
		t.Errorf("first trend = %+v", out.Trends[0])
	}
}

func TestBind_PropagatesFlowErrors(t *testing.T) {
	stub := &stubModel{raw: trendsJSON}
	exec := newExecutor(t, stub)

	_, err := Bind[trendsIn, trendsOut](exec, "diseaseTrends").Invoke(context.Background(), trendsIn{Region: "India"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if stub.calls.Load() != 0 {
		t.Error("model must not be called")
	}
}

func TestBind_NonObjectInput(t *testing.T) {
	exec := newExecutor(t, model.Func(func(ctx context.Context, req model.Request) (*model.Response, error) {
		t.Fatal("model must not be called")
		return nil, nil
	}))

	_, err := Bind[[]string, trendsOut](exec, "diseaseTrends").Invoke(context.Background(), []string{"India"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBind_OutputTypeMismatch(t *testing.T) {
	exec := newExecutor(t, &stubModel{raw: trendsJSON})

	type wrongOut struct {
		OverallSummary int `json:"overallSummary"`
	}
	_, err := Bind[trendsIn, wrongOut](exec, "diseaseTrends").Invoke(context.Background(), trendsIn{Region: "India", Timeframe: "now"})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
