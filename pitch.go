package sampler

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// ErrNoteName is returned when a string cannot be parsed as a note name.
var ErrNoteName = errors.New("invalid note name")

// A4 is the reference tuning; MIDI note 69.
const A4 Hz = 440

// NoteHz returns the equal tempered frequency of a (possibly fractional) MIDI
// note number. Note 60 is C4, note 69 is A4.
func NoteHz(note float64) Hz {
	return A4 * Hz(math.Exp2((note-69)/12))
}

// Note returns the fractional MIDI note number of the frequency.
func (h Hz) Note() float64 {
	return 69 + 12*math.Log2(float64(h/A4))
}

// Detune shifts the frequency by the given number of cents.
func (h Hz) Detune(cents float64) Hz {
	if cents == 0 {
		return h
	}
	return h * Hz(math.Exp2(cents/1200))
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the name of a MIDI note number, e.g. "C4" or "F#-1".
func NoteName(note int) string {
	semi := ((note % 12) + 12) % 12
	octave := (note-semi)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[semi], octave)
}

// NoteName returns the nearest note name of the frequency, followed by the
// deviation in cents when it is off by more than half a cent: "A4",
// "C4+12c".
func (h Hz) NoteName() string {
	if !(h > 0) || math.IsInf(float64(h), 0) {
		return "-"
	}
	n := h.Note()
	nearest := math.Round(n)
	name := NoteName(int(nearest))
	if cents := math.Round((n - nearest) * 100); cents != 0 {
		name += fmt.Sprintf("%+dc", int(cents))
	}
	return name
}

var semitones = map[rune]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

// ParseNote parses a note name such as "c4", "C#3", "eb2" or "a-1" into a MIDI
// note number, C4 being 60.
func ParseNote(s string) (int, error) {
	r := []rune(strings.ToLower(strings.TrimSpace(s)))
	if len(r) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrNoteName, s)
	}
	semi, ok := semitones[r[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoteName, s)
	}
	i := 1
	for ; i < len(r); i++ {
		switch r[i] {
		case '#', '♯':
			semi++
			continue
		case 'b', '♭':
			semi--
			continue
		}
		break
	}
	octave, err := strconv.Atoi(string(r[i:]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoteName, s)
	}
	note := (octave+1)*12 + semi
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("%w: %q out of MIDI range", ErrNoteName, s)
	}
	return note, nil
}

// ParsePitch parses either a note name or a frequency in Hz.
func ParsePitch(s string) (Hz, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("pitch %q must be a positive frequency", s)
		}
		return Hz(f), nil
	}
	n, err := ParseNote(s)
	if err != nil {
		return 0, err
	}
	return NoteHz(float64(n)), nil
}

// FindNote looks for a note name in a file name, e.g. "piano_c#4.wav" or
// "Cello-Eb2.wav". Tokens are tried from last to first, so a note name closer
// to the extension wins.
func FindNote(name string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '.' || r == ' '
	})
	for i := len(tokens) - 1; i >= 0; i-- {
		if n, ok := findNoteInToken(tokens[i]); ok {
			return n, true
		}
	}
	return 0, false
}

// findNoteInToken accepts a whole token ("c4", "c-1") or a token split by a
// dash ("cello-eb2"), checking the dash separated parts from the end.
func findNoteInToken(token string) (int, bool) {
	if n, err := ParseNote(token); err == nil {
		return n, true
	}
	parts := strings.Split(token, "-")
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if p == "" || !unicode.IsLetter([]rune(p)[0]) {
			continue
		}
		if n, err := ParseNote(p); err == nil {
			return n, true
		}
	}
	return 0, false
}
