package tui

import (
	"errors"
	"fmt"
	"strings"
)

// Tab identifies one dashboard tab.
type Tab int

const (
	TabInference Tab = iota
	TabTraining
	TabDataset
	TabProfile
)

// ErrUnknownTab is returned by ParseTab for names outside the tab set.
var ErrUnknownTab = errors.New("unknown tab")

// Tabs returns every tab in display order.
func Tabs() []Tab {
	return []Tab{TabInference, TabTraining, TabDataset, TabProfile}
}

// String returns the tab's command-line name.
func (t Tab) String() string {
	switch t {
	case TabInference:
		return "inference"
	case TabTraining:
		return "training"
	case TabDataset:
		return "dataset"
	case TabProfile:
		return "profile"
	default:
		return fmt.Sprintf("Tab(%d)", int(t))
	}
}

// Title returns the label shown in the tab bar.
func (t Tab) Title() string {
	switch t {
	case TabInference:
		return "Inference"
	case TabTraining:
		return "Training"
	case TabDataset:
		return "Dataset"
	case TabProfile:
		return "Profile"
	default:
		return t.String()
	}
}

// ParseTab converts a name such as "training" to a Tab. Unknown names are
// an error; there is no default tab.
func ParseTab(s string) (Tab, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Tabs() {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// Next returns the tab to the right, wrapping around.
func (t Tab) Next() Tab {
	n := len(Tabs())
	return Tab((int(t) + 1) % n)
}

// Prev returns the tab to the left, wrapping around.
func (t Tab) Prev() Tab {
	n := len(Tabs())
	return Tab((int(t) + n - 1) % n)
}
