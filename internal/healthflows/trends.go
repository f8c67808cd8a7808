package healthflows

import (
	"github.com/medportal/medassist/internal/flow"
	"github.com/medportal/medassist/internal/schema"
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// TrendsInput selects the region and period to summarize.
type TrendsInput struct {
	Region    string `json:"region"`
	Timeframe string `json:"timeframe"`
}

// DiseaseTrend is one disease entry of a trends report.
type DiseaseTrend struct {
	Disease   string `json:"disease"`
	Trend     string `json:"trend"`
	CaseCount int    `json:"caseCount"`
	Summary   string `json:"summary"`
}

// TrendsOutput is the validated trends report.
type TrendsOutput struct {
	Trends         []DiseaseTrend `json:"trends"`
	OverallSummary string         `json:"overallSummary"`
}

var trendsInput = schema.New("TrendsInput", "Region and period for a disease trend report",
	schema.String("region", "The geographical region, e.g. a country or state").Require(),
	schema.String("timeframe", "The period to analyze, e.g. \"last 30 days\"").Require(),
)

var trendsOutput = schema.New("TrendsOutput", "Disease trends for the requested region",
	schema.Array("trends", "Notable diseases in the region",
		schema.Object("", "A single disease trend",
			schema.String("disease", "Name of the disease").Require(),
			schema.Enum("trend", "Direction of the case count", TrendIncreasing, TrendDecreasing, TrendStable).Require(),
			schema.Integer("caseCount", "Approximate number of reported cases").Require(),
			schema.String("summary", "One or two sentence explanation").Require(),
		),
	).Require(),
	schema.String("overallSummary", "Summary of the overall public health situation").Require(),
)

const trendsPrompt = `You are a public health analyst. Generate a report of the most notable disease trends in {{region}} over {{timeframe}}.

For each disease give its name, whether cases are increasing, decreasing or stable, an approximate case count and a short summary of what is driving the change.
Finish with an overall summary of the public health situation in {{region}}.
Respond only with data matching the requested schema.`

func trendsDefinition() flow.Definition {
	return flow.Definition{
		Name:        DiseaseTrends,
		Description: "Summarize current disease trends for a region and timeframe",
		Version:     "1.0.0",
		Input:       trendsInput,
		Output:      trendsOutput,
		Prompt:      trendsPrompt,
		Source:      flow.SourceBuiltin,
	}
}

// Trends returns a typed handle for the diseaseTrends flow.
func Trends(exec *flow.Executor) *flow.Typed[TrendsInput, TrendsOutput] {
	return flow.Bind[TrendsInput, TrendsOutput](exec, DiseaseTrends)
}
