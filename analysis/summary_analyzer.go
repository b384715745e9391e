package analysis

import (
	"fmt"
	"io"
	"path"
	"text/tabwriter"

	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

// SummaryAnalyzer collects episode metrics and reports a Summary.
type SummaryAnalyzer struct {
	metrics []core.EpisodeMetrics
}

var _ core.Analyzer = &SummaryAnalyzer{}

func NewSummaryAnalyzer() *SummaryAnalyzer {
	return &SummaryAnalyzer{
		metrics: make([]core.EpisodeMetrics, 0),
	}
}

func (s *SummaryAnalyzer) Analyze(m core.EpisodeMetrics) {
	s.metrics = append(s.metrics, m)
}

func (s *SummaryAnalyzer) DataSet() core.DataSet {
	return Summarize(s.metrics)
}

func (s *SummaryAnalyzer) Reset() {
	s.metrics = make([]core.EpisodeMetrics, 0)
}

type SummaryAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &SummaryAnalyzerConstructor{}

func (s *SummaryAnalyzerConstructor) NewAnalyzer(_ string) core.Analyzer {
	return NewSummaryAnalyzer()
}

// SummaryComparator prints one row per experiment and, when savePath is set,
// writes the summaries to summary_comparison.json.
type SummaryComparator struct {
	out      io.Writer
	savePath string
}

var _ core.Comparator = &SummaryComparator{}

func NewSummaryComparator(out io.Writer, savePath string) *SummaryComparator {
	return &SummaryComparator{
		out:      out,
		savePath: savePath,
	}
}

func (c *SummaryComparator) Compare(experiments []string, datasets []core.DataSet) {
	summaries := make(map[string]Summary)
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "experiment\tsuccess%\tavg steps\tsteps on success\timprovement\texplore\tbump")
	for i, name := range experiments {
		s, ok := datasets[i].(Summary)
		if !ok {
			continue
		}
		summaries[name] = s
		onSuccess := "-"
		if s.HasAvgStepsOnSuccess {
			onSuccess = fmt.Sprintf("%.1f", s.AvgStepsOnSuccess)
		}
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%s\t%+.1f\t%.2f\t%.2f\n",
			name, s.SuccessRate, s.AvgSteps, onSuccess, s.Improvement, s.ExploreRate, s.BumpRate)
	}
	w.Flush()

	if c.savePath != "" {
		if err := util.SaveJson(path.Join(c.savePath, "summary_comparison.json"), summaries); err != nil {
			fmt.Fprintf(c.out, "could not save summaries: %v\n", err)
		}
	}
}
