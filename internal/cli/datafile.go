package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/flaglink/flaglink/model"
)

// DataSet is an in-memory snapshot of flags and segments loaded from a
// data file. It implements the evaluator's lookup interfaces.
type DataSet struct {
	Flags    map[string]*model.FeatureFlag
	Segments map[string]*model.Segment
}

// GetFlag returns the flag with the given key, or nil.
func (d *DataSet) GetFlag(key string) *model.FeatureFlag { return d.Flags[key] }

// GetSegment returns the segment with the given key, or nil.
func (d *DataSet) GetSegment(key string) *model.Segment { return d.Segments[key] }

// SortedFlags returns the flags ordered by key for stable output.
func (d *DataSet) SortedFlags() []*model.FeatureFlag {
	out := make([]*model.FeatureFlag, 0, len(d.Flags))
	for _, f := range d.Flags {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

type dataFileJSON struct {
	Flags    map[string]json.RawMessage `json:"flags"`
	Segments map[string]json.RawMessage `json:"segments"`
}

// LoadDataFile reads a flag data file of the form
// {"flags": {key: flag, ...}, "segments": {key: segment, ...}} and
// preprocesses every item.
func LoadDataFile(path string) (*DataSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var file dataFileJSON
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse data file %s: %w", path, err)
	}

	ds := &DataSet{
		Flags:    make(map[string]*model.FeatureFlag, len(file.Flags)),
		Segments: make(map[string]*model.Segment, len(file.Segments)),
	}
	for key, data := range file.Flags {
		f, err := model.ParseFeatureFlag(data)
		if err != nil {
			return nil, fmt.Errorf("flag %q: %w", key, err)
		}
		if f.Key == "" {
			f.Key = key
		}
		ds.Flags[f.Key] = f
	}
	for key, data := range file.Segments {
		s, err := model.ParseSegment(data)
		if err != nil {
			return nil, fmt.Errorf("segment %q: %w", key, err)
		}
		if s.Key == "" {
			s.Key = key
		}
		ds.Segments[s.Key] = s
	}
	return ds, nil
}

// LoadUserFile reads a user JSON file.
func LoadUserFile(path string) (*model.User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user file: %w", err)
	}
	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user file %s: %w", path, err)
	}
	return &user, nil
}
