package domain

import (
	"fmt"
	"strings"
)

// Level is a USDM intensity category, ordered by increasing severity.
type Level int

const (
	LevelNone Level = iota
	LevelD0
	LevelD1
	LevelD2
	LevelD3
	LevelD4
)

// LevelCount is the number of intensity levels.
const LevelCount = 6

var levelCodes = [LevelCount]string{"NONE", "D0", "D1", "D2", "D3", "D4"}

var levelLabels = [LevelCount]string{
	"Drought %",
	"Abnormally Dry %",
	"Moderate Drought %",
	"Severe Drought %",
	"Extreme Drought %",
	"Exceptional Drought %",
}

// Levels returns all levels in severity order.
func Levels() []Level {
	return []Level{LevelNone, LevelD0, LevelD1, LevelD2, LevelD3, LevelD4}
}

// ParseLevel converts a level code such as "D2" or "none" to a Level.
func ParseLevel(s string) (Level, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	for i, c := range levelCodes {
		if c == code {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Valid reports whether l is one of the six defined levels.
func (l Level) Valid() bool { return l >= LevelNone && l <= LevelD4 }

// String returns the level code, e.g. "D0".
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelCodes[l]
}

// Label returns the user-facing option label, e.g. "Abnormally Dry %".
func (l Level) Label() string {
	if !l.Valid() {
		return l.String()
	}
	return levelLabels[l]
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
	}
	return []byte(levelCodes[l]), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
