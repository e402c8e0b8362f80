// Package director pre-plans the full-frame animation events of a run and
// resolves which event is active for any frame. Placement (with retries)
// is more expensive than lookup, so the schedule is built once, sorted,
// and queried by containment.
package director

import (
	"math/rand"
	"sort"
)

// Kind names one entry of the animation catalog.
type Kind string

const (
	KindWave      Kind = "wave"
	KindSpin      Kind = "spin"
	KindLightning Kind = "lightning"
	KindPulse     Kind = "pulse"
	KindSnake     Kind = "snake"
	KindOddEven   Kind = "odd_even"
	KindCountUp   Kind = "count_up"
)

// DefaultCatalog lists every supported animation kind.
var DefaultCatalog = []Kind{KindWave, KindSpin, KindLightning, KindPulse, KindSnake, KindOddEven, KindCountUp}

// Params are drawn once at placement time so replays of the same event
// are deterministic. Their meaning is kind-specific.
type Params struct {
	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period"`
	Direction int     `yaml:"direction"`
}

// Event is immutable once scheduled.
type Event struct {
	StartFrame     int    `yaml:"start_frame"`
	DurationFrames int    `yaml:"duration_frames"`
	Kind           Kind   `yaml:"kind"`
	Params         Params `yaml:"params"`
}

// End returns the first frame past the event.
func (e Event) End() int {
	return e.StartFrame + e.DurationFrames
}

// Schedule is the sorted, immutable event list for one run.
type Schedule struct {
	Events []Event `yaml:"events"`
}

// Options bounds event placement.
type Options struct {
	MinDuration int
	MaxDuration int
	MinGap      int
	Retries     int
}

const defaultRetries = 16

// BuildSchedule partitions the timeline into one target slot per event,
// draws a jittered start and a bounded duration inside each slot, and
// keeps the result only if it clears the previously placed event by
// MinGap frames. Violations shrink the duration and shift the start for
// a bounded number of retries; an event that still does not fit is
// dropped. The schedule never fails, it only gets sparser.
func BuildSchedule(rng *rand.Rand, totalFrames, count int, catalog []Kind, opts Options) Schedule {
	if count <= 0 || totalFrames <= 0 || len(catalog) == 0 {
		return Schedule{}
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	part := totalFrames / count
	if part <= 0 {
		part = 1
	}

	events := make([]Event, 0, count)
	prevEnd := 0
	for slot := 0; slot < count; slot++ {
		base := slot * part
		limit := base + part
		if slot == count-1 {
			limit = totalFrames
		}

		dur := randIn(rng, opts.MinDuration, opts.MaxDuration)
		for attempt := 0; attempt < retries; attempt++ {
			span := limit - base
			if span <= 0 {
				break
			}
			start := base + rng.Intn(span)
			if start < prevEnd+opts.MinGap {
				start = prevEnd + opts.MinGap
			}
			if start+dur <= limit {
				kind := catalog[rng.Intn(len(catalog))]
				events = append(events, Event{
					StartFrame:     start,
					DurationFrames: dur,
					Kind:           kind,
					Params:         drawParams(rng, kind),
				})
				prevEnd = start + dur
				break
			}
			// Не влезло: укорачиваем и пробуем снова.
			dur = dur * 3 / 4
			if dur < opts.MinDuration {
				dur = opts.MinDuration
			}
			if dur <= 0 {
				break
			}
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].StartFrame < events[j].StartFrame })
	return Schedule{Events: events}
}

// drawParams fixes kind-specific randomness at placement time.
func drawParams(rng *rand.Rand, kind Kind) Params {
	dir := 1
	if rng.Intn(2) == 0 {
		dir = -1
	}
	switch kind {
	case KindWave:
		// Амплитуда — доля высоты глифа, период — число волн за событие.
		return Params{Amplitude: 0.1 + rng.Float64()*0.3, Period: 1 + rng.Float64()*2, Direction: dir}
	case KindSpin:
		// Период — число полных оборотов.
		return Params{Period: 1 + float64(rng.Intn(3)), Direction: dir}
	case KindLightning:
		// Период — число переключений мерцания.
		return Params{Period: 8 + float64(rng.Intn(13))}
	case KindPulse:
		return Params{Amplitude: 0.1 + rng.Float64()*0.4, Period: 1 + float64(rng.Intn(3))}
	case KindSnake:
		// Период — шаги змейки на единицу прогресса.
		return Params{Period: 16 + float64(rng.Intn(17))}
	case KindOddEven:
		return Params{}
	case KindCountUp:
		// Период — до скольких секунд досчитывает табло.
		return Params{Period: 30}
	}
	return Params{Direction: dir}
}

// ActiveAt resolves the event whose [start, start+duration) contains the
// frame, with the elapsed-progress fraction in [0, 1). At most one event
// is active by construction.
func (s Schedule) ActiveAt(frame int) (*Event, float64) {
	i := sort.Search(len(s.Events), func(i int) bool {
		return s.Events[i].StartFrame > frame
	})
	if i == 0 {
		return nil, 0
	}
	ev := &s.Events[i-1]
	if frame >= ev.End() || ev.DurationFrames <= 0 {
		return nil, 0
	}
	return ev, float64(frame-ev.StartFrame) / float64(ev.DurationFrames)
}

func randIn(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}
