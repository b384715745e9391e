package analysis

import (
	"path"

	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

// curveDataset is a learning curve: success rate and mean steps per block
// of consecutive episodes.
type curveDataset struct {
	BlockSize   int       `json:"block_size"`
	SuccessRate []float64 `json:"success_rate"`
	AvgSteps    []float64 `json:"avg_steps"`
}

func (c *curveDataset) Copy() *curveDataset {
	out := &curveDataset{
		BlockSize:   c.BlockSize,
		SuccessRate: make([]float64, len(c.SuccessRate)),
		AvgSteps:    make([]float64, len(c.AvgSteps)),
	}
	copy(out.SuccessRate, c.SuccessRate)
	copy(out.AvgSteps, c.AvgSteps)
	return out
}

type CurveAnalyzer struct {
	blockSize int
	dataset   *curveDataset

	blockWins  int
	blockSteps int
	blockCount int
}

var _ core.Analyzer = &CurveAnalyzer{}

func NewCurveAnalyzer(blockSize int) *CurveAnalyzer {
	if blockSize <= 0 {
		blockSize = 10
	}
	c := &CurveAnalyzer{blockSize: blockSize}
	c.Reset()
	return c
}

func (c *CurveAnalyzer) Reset() {
	c.dataset = &curveDataset{
		BlockSize:   c.blockSize,
		SuccessRate: make([]float64, 0),
		AvgSteps:    make([]float64, 0),
	}
	c.blockWins, c.blockSteps, c.blockCount = 0, 0, 0
}

func (c *CurveAnalyzer) Analyze(m core.EpisodeMetrics) {
	c.blockCount++
	c.blockSteps += m.Steps
	if m.Success {
		c.blockWins++
	}
	if c.blockCount == c.blockSize {
		c.flush()
	}
}

func (c *CurveAnalyzer) flush() {
	if c.blockCount == 0 {
		return
	}
	n := float64(c.blockCount)
	c.dataset.SuccessRate = append(c.dataset.SuccessRate, 100*float64(c.blockWins)/n)
	c.dataset.AvgSteps = append(c.dataset.AvgSteps, float64(c.blockSteps)/n)
	c.blockWins, c.blockSteps, c.blockCount = 0, 0, 0
}

// DataSet includes the trailing partial block.
func (c *CurveAnalyzer) DataSet() core.DataSet {
	out := c.dataset.Copy()
	if c.blockCount > 0 {
		n := float64(c.blockCount)
		out.SuccessRate = append(out.SuccessRate, 100*float64(c.blockWins)/n)
		out.AvgSteps = append(out.AvgSteps, float64(c.blockSteps)/n)
	}
	return out
}

type CurveAnalyzerConstructor struct {
	BlockSize int
}

var _ core.AnalyzerConstructor = &CurveAnalyzerConstructor{}

func (c *CurveAnalyzerConstructor) NewAnalyzer(_ string) core.Analyzer {
	return NewCurveAnalyzer(c.BlockSize)
}

// CurveComparator writes every experiment's curve to curve_comparison.json.
type CurveComparator struct {
	savePath string
}

var _ core.Comparator = &CurveComparator{}

func NewCurveComparator(savePath string) *CurveComparator {
	return &CurveComparator{
		savePath: path.Join(savePath, "curve_comparison.json"),
	}
}

func (c *CurveComparator) Compare(experiments []string, datasets []core.DataSet) {
	out := make(map[string]*curveDataset)
	for i, name := range experiments {
		if d, ok := datasets[i].(*curveDataset); ok {
			out[name] = d
		}
	}
	util.SaveJson(c.savePath, out)
}
