package marker

// ChannelID names a marker transport.
type ChannelID int

const (
	ChannelReflex ChannelID = iota
	ChannelVulkan
	ChannelETW
	ChannelSynthetic
)

func (c ChannelID) String() string {
	switch c {
	case ChannelReflex:
		return "reflex"
	case ChannelVulkan:
		return "vulkan"
	case ChannelETW:
		return "etw"
	case ChannelSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// ParseChannelID maps a channel name back to its id.
func ParseChannelID(s string) (ChannelID, bool) {
	for _, id := range []ChannelID{ChannelReflex, ChannelVulkan, ChannelETW, ChannelSynthetic} {
		if id.String() == s {
			return id, true
		}
	}
	return 0, false
}

// Channel is the lifecycle and diagnostics contract shared by every marker
// source adapter. Install failures leave the channel inactive; they are never
// surfaced to the host application.
type Channel interface {
	ID() ChannelID
	Install() error
	Uninstall()
	Installed() bool
	Counters() Snapshot
	ResetCounters()
}
