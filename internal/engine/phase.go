package engine

type Phase uint8

const (
	Ready Phase = iota
	Playing
	Ended
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Ended:
		return "ended"
	}
	return "unknown"
}
