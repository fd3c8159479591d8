package dashboard

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNoChartData = errors.New("dashboard: prediction has no data")

const (
	defaultCanvasWidth  = 800
	defaultCanvasHeight = 300
	defaultPadding      = 40
	tickCount           = 5
	tickPlaces          = 2
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Tick struct {
	Label string  `json:"label"`
	Y     float64 `json:"y"`
}

// Series carries its own axis only when the chart uses separate scales.
type Series struct {
	Label  string    `json:"label"`
	Dashed bool      `json:"dashed"`
	Values []float64 `json:"values"`
	Points []Point   `json:"points"`
	Min    string    `json:"min,omitempty"`
	Max    string    `json:"max,omitempty"`
	Ticks  []Tick    `json:"ticks,omitempty"`
}

// Chart is ready-to-draw line chart geometry. By default both series share
// one scale so the actual market overlays the prediction; with separate
// scales each series is fitted to its own range and the chart axis follows
// the prediction.
type Chart struct {
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Padding  float64  `json:"padding"`
	Separate bool     `json:"separate"`
	Min      string   `json:"min"`
	Max      string   `json:"max"`
	Ticks    []Tick   `json:"ticks"`
	Series   []Series `json:"series"`
}

type ChartOption func(*Chart)

func WithCanvas(width, height float64) ChartOption {
	return func(c *Chart) {
		if width > 0 {
			c.Width = width
		}
		if height > 0 {
			c.Height = height
		}
	}
}

func WithPadding(p float64) ChartOption {
	return func(c *Chart) {
		if p >= 0 {
			c.Padding = p
		}
	}
}

// WithSeparateScales draws each series on its own scale.
func WithSeparateScales() ChartOption {
	return func(c *Chart) { c.Separate = true }
}

// NewChart builds the chart of a prediction and, when present, the realised
// market series.
func NewChart(prediction, actual []float64, opts ...ChartOption) (*Chart, error) {
	if len(prediction) == 0 {
		return nil, ErrNoChartData
	}
	c := &Chart{Width: defaultCanvasWidth, Height: defaultCanvasHeight, Padding: defaultPadding}
	for _, o := range opts {
		o(c)
	}

	chartW := c.Width - 2*c.Padding
	chartH := c.Height - 2*c.Padding

	if !c.Separate {
		ax := newAxis(c.Padding, chartH, prediction, actual)
		c.Min, c.Max, c.Ticks = ax.min, ax.max, ax.ticks
		c.Series = append(c.Series, Series{
			Label:  "Prediction",
			Values: prediction,
			Points: ax.project(prediction, c.Padding, chartW),
		})
		if len(actual) > 0 {
			c.Series = append(c.Series, Series{
				Label:  "Actual",
				Dashed: true,
				Values: actual,
				Points: ax.project(actual, c.Padding, chartW),
			})
		}
		return c, nil
	}

	pa := newAxis(c.Padding, chartH, prediction)
	c.Min, c.Max, c.Ticks = pa.min, pa.max, pa.ticks
	c.Series = append(c.Series, Series{
		Label:  "Prediction",
		Values: prediction,
		Points: pa.project(prediction, c.Padding, chartW),
		Min:    pa.min,
		Max:    pa.max,
		Ticks:  pa.ticks,
	})
	if len(actual) > 0 {
		aa := newAxis(c.Padding, chartH, actual)
		c.Series = append(c.Series, Series{
			Label:  "Actual",
			Dashed: true,
			Values: actual,
			Points: aa.project(actual, c.Padding, chartW),
			Min:    aa.min,
			Max:    aa.max,
			Ticks:  aa.ticks,
		})
	}
	return c, nil
}

// axis maps values onto the vertical extent of the chart box.
type axis struct {
	base, span float64
	height     float64
	min, max   string
	ticks      []Tick
}

func newAxis(pad, chartH float64, series ...[]float64) axis {
	lo, hi := bounds(series...)
	rng := hi.Sub(lo)
	if rng.IsZero() {
		rng = decimal.NewFromInt(1)
	}
	ax := axis{height: chartH, min: lo.StringFixed(tickPlaces), max: hi.StringFixed(tickPlaces)}

	step := rng.Div(decimal.NewFromInt(tickCount))
	ax.ticks = make([]Tick, 0, tickCount+1)
	for i := 0; i <= tickCount; i++ {
		v := lo.Add(step.Mul(decimal.NewFromInt(int64(tickCount - i))))
		ax.ticks = append(ax.ticks, Tick{
			Label: v.StringFixed(tickPlaces),
			Y:     pad + chartH/tickCount*float64(i),
		})
	}
	ax.base, _ = lo.Float64()
	ax.span, _ = rng.Float64()
	return ax
}

func (ax axis) project(values []float64, pad, w float64) []Point {
	return project(values, ax.base, ax.span, pad, w, ax.height)
}

func bounds(series ...[]float64) (decimal.Decimal, decimal.Decimal) {
	var lo, hi decimal.Decimal
	first := true
	for _, s := range series {
		for _, v := range s {
			d := decimal.NewFromFloat(v)
			if first {
				lo, hi, first = d, d, false
				continue
			}
			lo = decimal.Min(lo, d)
			hi = decimal.Max(hi, d)
		}
	}
	return lo, hi
}

func project(values []float64, base, span, pad, w, h float64) []Point {
	den := float64(len(values) - 1)
	if den == 0 {
		den = 1
	}
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{
			X: pad + float64(i)/den*w,
			Y: pad + h - (v-base)/span*h,
		}
	}
	return pts
}
