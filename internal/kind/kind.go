package kind

type Kind int

const (
	Transient Kind = iota
	Cached
	Instance
	Method
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Cached:
		return "cached"
	case Instance:
		return "instance"
	case Method:
		return "method"
	default:
		return "unknown"
	}
}
