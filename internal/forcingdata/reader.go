// Package forcingdata reads external forcing time series (CO2, volcanic,
// solar, orbital reconstructions) from delimited text files and serves
// them to the flux library through a monotonic lookup-by-time contract.
package forcingdata

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klimalab/ebmsim/internal/ebm"
)

// timeScale converts the human-readable units used in forcing files to
// the internal seconds.
var timeScale = map[string]float64{
	"second": 1,
	"minute": 60,
	"hour":   3600,
	"day":    ebm.SecondsPerDay,
	"week":   ebm.SecondsPerDay * 7,
	"month":  ebm.SecondsPerYear / 12,
	"year":   ebm.SecondsPerYear,
}

// Options describes how a forcing file is parsed and converted.
type Options struct {
	// Path of the data file.
	Path string
	// Delimiter between columns; empty splits on whitespace.
	Delimiter string
	// Header is the number of leading lines to skip.
	Header int
	// TimeCol and ValueCol are zero-based column indices.
	TimeCol, ValueCol int

	// TimeUnit is the unit of the time column (second, minute, hour,
	// day, week, month, year).
	TimeUnit string
	// BeforePresent interprets the time column as years (or the chosen
	// unit) before the TimeStart origin, running backwards; otherwise
	// times are offset forward by TimeStart.
	BeforePresent bool
	// TimeStart is the time origin in the file's time unit.
	TimeStart float64

	// KInput and MInput apply a linear conversion v*K + M to the values
	// as they are read; KOutput and MOutput apply the same at lookup.
	KInput, MInput   float64
	KOutput, MOutput float64
}

func (o Options) inputScale(v float64) float64 {
	k := o.KInput
	if k == 0 {
		k = 1
	}
	return v*k + o.MInput
}

func (o Options) outputScale(v float64) float64 {
	k := o.KOutput
	if k == 0 {
		k = 1
	}
	return v*k + o.MOutput
}

// Series is an immutable forcing time series with times in seconds,
// sorted ascending. Safe to share between runs once loaded.
type Series struct {
	times  []float64
	values []float64
	opts   Options
}

// Load reads and converts a forcing file. All failures are data-source
// errors surfaced before any integration step runs.
func Load(opts Options) (*Series, error) {
	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, &ebm.DataSourceError{Path: opts.Path, Reason: err.Error()}
	}
	defer f.Close()

	scale, ok := timeScale[opts.TimeUnit]
	if opts.TimeUnit == "" {
		scale = 1
	} else if !ok {
		return nil, &ebm.DataSourceError{Path: opts.Path, Reason: "unknown time unit " + strconv.Quote(opts.TimeUnit)}
	}

	var times, values []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		if line <= opts.Header {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var cols []string
		if opts.Delimiter == "" {
			cols = strings.Fields(text)
		} else {
			cols = strings.Split(text, opts.Delimiter)
		}
		if opts.TimeCol >= len(cols) || opts.ValueCol >= len(cols) {
			return nil, &ebm.DataSourceError{Path: opts.Path, Reason: "line " + strconv.Itoa(line) + ": missing columns"}
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(cols[opts.TimeCol]), 64)
		if err != nil {
			return nil, &ebm.DataSourceError{Path: opts.Path, Reason: "line " + strconv.Itoa(line) + ": bad time: " + err.Error()}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[opts.ValueCol]), 64)
		if err != nil {
			return nil, &ebm.DataSourceError{Path: opts.Path, Reason: "line " + strconv.Itoa(line) + ": bad value: " + err.Error()}
		}
		if opts.BeforePresent {
			t = -(t - opts.TimeStart)
		} else {
			t += opts.TimeStart
		}
		times = append(times, t*scale)
		values = append(values, opts.inputScale(v))
	}
	if err := sc.Err(); err != nil {
		return nil, &ebm.DataSourceError{Path: opts.Path, Reason: err.Error()}
	}
	if len(times) == 0 {
		return nil, &ebm.DataSourceError{Path: opts.Path, Reason: "no data rows"}
	}
	return NewSeries(times, values, opts)
}

// NewSeries builds a series from already-converted samples. Samples are
// sorted by time; duplicate timestamps keep their relative order.
func NewSeries(times, values []float64, opts Options) (*Series, error) {
	if len(times) != len(values) {
		return nil, &ebm.DataSourceError{Path: opts.Path, Reason: "time and value columns differ in length"}
	}
	s := &Series{
		times:  append([]float64(nil), times...),
		values: append([]float64(nil), values...),
		opts:   opts,
	}
	sort.Sort(byTime{s})
	return s, nil
}

// Span returns the first and last sample time in seconds.
func (s *Series) Span() (first, last float64) {
	return s.times[0], s.times[len(s.times)-1]
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.times) }

// At returns the i-th sample (time in seconds, converted value).
func (s *Series) At(i int) (t, v float64) { return s.times[i], s.values[i] }

type byTime struct{ s *Series }

func (b byTime) Len() int           { return len(b.s.times) }
func (b byTime) Less(i, j int) bool { return b.s.times[i] < b.s.times[j] }
func (b byTime) Swap(i, j int) {
	b.s.times[i], b.s.times[j] = b.s.times[j], b.s.times[i]
	b.s.values[i], b.s.values[j] = b.s.values[j], b.s.values[i]
}

// Cursor provides step-function lookup over a series for monotonically
// non-decreasing query times. Each configured forcing term owns its own
// cursor, so independently configured instances never interfere.
type Cursor struct {
	s   *Series
	idx int
	val float64
}

// NewCursor starts a cursor at the beginning of the series.
func (s *Series) NewCursor() *Cursor { return &Cursor{s: s} }

// Lookup returns the forcing value active at time t (seconds). Before
// the first sample and after the last the forcing is zero (offset only).
func (c *Cursor) Lookup(t float64) float64 {
	s := c.s
	for t > s.times[c.idx] {
		if c.idx == len(s.times)-1 {
			c.val = 0
			break
		}
		c.val = s.values[c.idx]
		c.idx++
	}
	return s.opts.outputScale(c.val)
}
