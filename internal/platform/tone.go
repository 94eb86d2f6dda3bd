package platform

import (
	"encoding/binary"
	"math"
	"time"
)

// Output format shared by every sound the audio context plays.
const (
	SampleRate   = 44100
	ChannelCount = 2
	BitDepth     = 16
)

const fadeDuration = 5 * time.Millisecond

// Tone is one segment of a synthesized sound. A zero frequency is silence.
type Tone struct {
	Freq     float64
	Duration time.Duration
	Gain     float64
}

// ChimeTones is the two-tone ambient chime.
var ChimeTones = []Tone{
	{Freq: 880, Duration: 150 * time.Millisecond, Gain: 0.3},
	{Freq: 660, Duration: 250 * time.Millisecond, Gain: 0.3},
}

// AlarmTones is one cycle of the built-in alarm pattern.
var AlarmTones = []Tone{
	{Freq: 988, Duration: 120 * time.Millisecond, Gain: 0.4},
	{Duration: 60 * time.Millisecond},
	{Freq: 988, Duration: 120 * time.Millisecond, Gain: 0.4},
	{Duration: 60 * time.Millisecond},
	{Freq: 1319, Duration: 240 * time.Millisecond, Gain: 0.4},
	{Duration: 400 * time.Millisecond},
}

// Synthesize renders tones as signed 16-bit little-endian interleaved PCM.
func Synthesize(tones []Tone) []byte {
	total := 0
	for _, t := range tones {
		total += samplesFor(t.Duration)
	}

	buf := make([]byte, 0, total*ChannelCount*2)
	frame := make([]byte, 2)

	for _, t := range tones {
		n := samplesFor(t.Duration)
		fade := samplesFor(fadeDuration)
		if fade*2 > n {
			fade = n / 2
		}

		for i := 0; i < n; i++ {
			var v float64
			if t.Freq > 0 {
				v = math.Sin(2*math.Pi*t.Freq*float64(i)/SampleRate) * t.Gain
				switch {
				case i < fade:
					v *= float64(i) / float64(fade)
				case i >= n-fade:
					v *= float64(n-i) / float64(fade)
				}
			}
			sample := int16(v * math.MaxInt16)
			binary.LittleEndian.PutUint16(frame, uint16(sample))
			for c := 0; c < ChannelCount; c++ {
				buf = append(buf, frame...)
			}
		}
	}

	return buf
}

func samplesFor(d time.Duration) int {
	return int(int64(d) * SampleRate / int64(time.Second))
}
