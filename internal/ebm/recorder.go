package ebm

// Diagnostic term names recorded by the flux library.
const (
	DiagAlbedo   = "albedo"
	DiagRdown    = "Rdown"
	DiagRup      = "Rup"
	DiagTransfer = "transfer"
	DiagNoise    = "noise"
	DiagSolar    = "solar"
)

// Recorder is the append-only diagnostics buffer of one run. Flux terms
// write into it on every evaluation attempt, but values are kept only
// while the recorder is armed. The integrator arms it for the first of
// the four evaluations of a readout step, so the buffer grows by one
// entry per readout, not per step, bounding memory on long runs.
type Recorder struct {
	armed  bool
	series map[string][]State
}

func NewRecorder() *Recorder {
	return &Recorder{series: make(map[string][]State)}
}

// Arm enables recording for the next evaluation; Disarm reverts it.
func (r *Recorder) Arm()    { r.armed = true }
func (r *Recorder) Disarm() { r.armed = false }

// Armed reports whether the next Record call will keep its value.
func (r *Recorder) Armed() bool { return r.armed }

// Record appends a copy of v under name if the recorder is armed.
func (r *Recorder) Record(name string, v State) {
	if !r.armed {
		return
	}
	r.series[name] = append(r.series[name], v.Clone())
}

// RecordConstant appends a copy of v under name regardless of arming.
// For values captured once per run outside the readout cycle, such as
// the insolation distribution fixed at construction.
func (r *Recorder) RecordConstant(name string, v State) {
	r.series[name] = append(r.series[name], v.Clone())
}

// RecordScalar appends a single-band value under name if armed.
func (r *Recorder) RecordScalar(name string, v float64) {
	if !r.armed {
		return
	}
	r.series[name] = append(r.series[name], State{v})
}

// Series returns the recorded values. The map is owned by the recorder;
// callers must not append to it.
func (r *Recorder) Series() map[string][]State { return r.series }

// Len returns the number of entries recorded under name.
func (r *Recorder) Len(name string) int { return len(r.series[name]) }
