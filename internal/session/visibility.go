package session

// Visibility is the state of the risk summary overlay.
type Visibility int

const (
	Hidden Visibility = iota // initial; also after dismissal
	Shown
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Shown:
		return "shown"
	default:
		return "unknown"
	}
}
