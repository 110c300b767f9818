package availability

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// calendarFile mirrors the advisor calendar export. JSON files parse too,
// JSON being a subset of YAML.
type calendarFile struct {
	Advisor struct {
		Availability struct {
			TimeSlots []struct {
				StartTime struct {
					DateTime string `yaml:"dateTime"`
				} `yaml:"startTime"`
				EndTime struct {
					DateTime string `yaml:"dateTime"`
				} `yaml:"endTime"`
			} `yaml:"timeSlots"`
		} `yaml:"availability"`
	} `yaml:"advisor"`
}

// FileSource reads the advisor calendar from disk on first successful use.
// A failed read is retried on the next call.
type FileSource struct {
	path string

	mu     sync.Mutex
	loaded bool
	slots  []Slot
}

// NewFileSource creates a source backed by the calendar file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Slots implements Source.
func (f *FileSource) Slots(ctx context.Context) ([]Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loaded {
		return f.slots, nil
	}
	slots, err := LoadFile(f.path)
	if err != nil {
		return nil, err
	}
	f.slots, f.loaded = slots, true
	return f.slots, nil
}

// LoadFile parses a calendar file.
func LoadFile(path string) ([]Slot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	return Parse(data)
}

// Parse decodes calendar content.
func Parse(data []byte) ([]Slot, error) {
	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	raw := file.Advisor.Availability.TimeSlots
	slots := make([]Slot, 0, len(raw))
	for i, s := range raw {
		start, err := ParseTimestamp(s.StartTime.DateTime)
		if err != nil {
			return nil, fmt.Errorf("slot %d start: %w", i, err)
		}
		end, err := ParseTimestamp(s.EndTime.DateTime)
		if err != nil {
			return nil, fmt.Errorf("slot %d end: %w", i, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("slot %d ends before it starts", i)
		}
		slots = append(slots, Slot{Start: start, End: end})
	}
	return slots, nil
}
