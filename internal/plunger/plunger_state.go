package plunger

// State is what a renderer needs to draw the plunger.
type State struct {
	Frame int `json:"frame"`
}

func (s State) Equals(o *State) bool {
	return o != nil && o.Frame == s.Frame
}
