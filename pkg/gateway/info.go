package gateway

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Info reports live session facts to commands and the status API.
type Info struct {
	session *discordgo.Session
}

// NewInfo creates an Info for session.
func NewInfo(session *discordgo.Session) *Info {
	return &Info{session: session}
}

// Latency returns the last heartbeat round trip.
func (i *Info) Latency() time.Duration {
	return i.session.HeartbeatLatency()
}

// GuildCount returns the number of guilds in the session cache.
func (i *Info) GuildCount() int {
	st := i.session.State
	if st == nil {
		return 0
	}
	st.RLock()
	defer st.RUnlock()
	return len(st.Guilds)
}
