package automation

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/cbegin/efflux-go/internal/graph"
	"github.com/cbegin/efflux-go/internal/voice"
)

type recordingParam struct {
	value float64
	calls []string
}

func (p *recordingParam) Value() float64 { return p.value }

func (p *recordingParam) SetValueAtTime(v, t float64) {
	p.calls = append(p.calls, fmt.Sprintf("set %g@%g", v, t))
}

func (p *recordingParam) LinearRampToValueAtTime(v, t float64) {
	p.calls = append(p.calls, fmt.Sprintf("ramp %g@%g", v, t))
}

func (p *recordingParam) CancelScheduledValues(t float64) {
	p.calls = append(p.calls, fmt.Sprintf("cancel@%g", t))
}

func TestScheduleParameterChange(t *testing.T) {
	cases := []struct {
		name      string
		glide     bool
		state     *voice.RampState
		want      []string
		wantState voice.RampState
	}{
		{
			name:      "instant",
			want:      []string{"cancel@1", "set 0.5@1"},
			state:     new(voice.RampState),
			wantState: voice.Idle,
		},
		{
			name:      "glide from idle",
			glide:     true,
			state:     new(voice.RampState),
			want:      []string{"cancel@1", "set 0.8@1", "ramp 0.5@1.25"},
			wantState: voice.Ramping,
		},
		{
			name:      "glide while ramping",
			glide:     true,
			state:     func() *voice.RampState { s := voice.Ramping; return &s }(),
			want:      []string{"ramp 0.5@1.25"},
			wantState: voice.Ramping,
		},
		{
			name:      "instant while ramping",
			state:     func() *voice.RampState { s := voice.Ramping; return &s }(),
			want:      []string{"cancel@1", "set 0.5@1"},
			wantState: voice.Idle,
		},
		{
			name:  "glide without tracking",
			glide: true,
			want:  []string{"cancel@1", "set 0.8@1", "ramp 0.5@1.25"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &recordingParam{value: 0.8}
			ScheduleParameterChange(p, 0.5, 1, 0.25, tc.glide, tc.state)
			if !reflect.DeepEqual(p.calls, tc.want) {
				t.Fatalf("calls = %v, want %v", p.calls, tc.want)
			}
			if tc.state != nil && *tc.state != tc.wantState {
				t.Fatalf("state = %v, want %v", *tc.state, tc.wantState)
			}
		})
	}
}

func TestConsecutiveGlidesDoNotRestart(t *testing.T) {
	p := &recordingParam{value: 1}
	var state voice.RampState

	ScheduleParameterChange(p, 0.5, 0, 0.5, true, &state)
	p.value = 0.75
	ScheduleParameterChange(p, 0.2, 0.5, 0.5, true, &state)

	want := []string{"cancel@0", "set 1@0", "ramp 0.5@0.5", "ramp 0.2@1"}
	if !reflect.DeepEqual(p.calls, want) {
		t.Fatalf("calls = %v, want %v", p.calls, want)
	}
}

func TestConsecutiveGlidesWithoutTrackingRestart(t *testing.T) {
	p := &recordingParam{value: 1}
	ScheduleParameterChange(p, 0.5, 0, 0.5, true, nil)
	ScheduleParameterChange(p, 0.2, 0.5, 0.5, true, nil)

	cancels := 0
	for _, c := range p.calls {
		if strings.HasPrefix(c, "cancel") {
			cancels++
		}
	}
	if cancels != 2 {
		t.Fatalf("cancels = %d, want 2 (%v)", cancels, p.calls)
	}
}

func TestGlideStartsWhereRunningRampEnds(t *testing.T) {
	ctx := graph.NewContext(1000)
	g := ctx.CreateGain()
	g.Gain.SetValue(1)

	ScheduleParameterChange(g.Gain, 0.2, 0, 0.25, true, nil)
	for i := 0; i < 250; i++ {
		ctx.Render(g)
	}
	ScheduleParameterChange(g.Gain, 0.6, 0.25, 0.25, true, nil)

	if got := g.Gain.ValueAt(0.25); math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("value at second glide start = %v, want 0.2", got)
	}
	if got := g.Gain.ValueAt(0.375); math.Abs(got-0.4) > 1e-9 {
		t.Fatalf("value halfway = %v, want 0.4", got)
	}
}
