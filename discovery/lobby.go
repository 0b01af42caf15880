package discovery

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Info is what a player announces while waiting for an opponent.
type Info struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Lobby delivers every distinct player announced on the network once.
type Lobby struct {
	Infos    chan Info
	discover *Discover
}

func NewLobby(info Info, port uint16, interval time.Duration) (*Lobby, error) {
	infoJson, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	return &Lobby{
		Infos: make(chan Info),
		discover: &Discover{
			Info:                         infoJson,
			Port:                         port,
			IntervalBetweenAnnouncements: interval,
		},
	}, nil
}

// WithLogger sets the logger used for malformed announcements.
func (l *Lobby) WithLogger(logger *slog.Logger) *Lobby {
	l.discover.Logger = logger
	return l
}

func (l *Lobby) Start() error {
	if err := l.discover.Start(); err != nil {
		return err
	}
	go func() {
		defer close(l.Infos)
		seen := map[Info]struct{}{}
		for entry := range l.discover.Entries {
			info := Info{}
			if err := json.Unmarshal(entry.Info, &info); err != nil {
				l.discover.Logger.Warn("ignoring malformed announcement", "error", err)
				continue
			}
			if _, ok := seen[info]; ok {
				continue
			}
			seen[info] = struct{}{}
			select {
			case l.Infos <- info:
			case <-l.discover.done:
				return
			}
		}
	}()
	return nil
}

func (l *Lobby) Close() error {
	return l.discover.Close()
}
