package dubbing

import (
	"fmt"
	"time"
)

type State int

const (
	StateValidating State = iota
	StateSynthesizingAudio
	StatePlanning
	StateBuildingGraph
	StateExtractingVideo
	StateRemixing
	StateSwapping
	StatePersistingMetadata
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSynthesizingAudio:
		return "synthesizing_audio"
	case StatePlanning:
		return "planning"
	case StateBuildingGraph:
		return "building_graph"
	case StateExtractingVideo:
		return "extracting_video"
	case StateRemixing:
		return "remixing"
	case StateSwapping:
		return "swapping"
	case StatePersistingMetadata:
		return "persisting_metadata"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st := StateValidating; st <= StateError; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}

	return fmt.Errorf("unknown state %q", text)
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// Event is published on every state transition of a run.
type Event struct {
	RunID   string    `json:"run_id"`
	VideoID string    `json:"video_id"`
	State   State     `json:"state"`
	Time    time.Time `json:"time"`

	// set when State is StateError
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
