package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"
)

const (
	multicastIpAddress = "239.0.0.1"
	keySize            = 8
	maxDatagram        = 1024
)

// Discover announces Info on the multicast group and listens for the
// announcements of other instances. Configure Info, Port and
// IntervalBetweenAnnouncements before calling Start; discovered entries are
// then delivered on Entries.
type Discover struct {
	Info                         []byte
	Port                         uint16
	IntervalBetweenAnnouncements time.Duration
	Logger                       *slog.Logger
	Entries                      chan Entry
	conn                         *net.UDPConn
	sendConn                     *net.UDPConn
	key                          []byte
	done                         chan struct{}
}

// Entry represents a single announcement received from a peer.
type Entry struct {
	Info []byte
	Time time.Time
}

// Start joins the multicast group and starts the listener and announcer
// goroutines.
func (d *Discover) Start() error {
	if len(d.Info)+keySize > maxDatagram {
		return fmt.Errorf("announcement of %d bytes does not fit a datagram", len(d.Info))
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	d.Entries = make(chan Entry, 10)
	d.done = make(chan struct{})
	d.key = []byte(fmt.Sprintf("%08x", rand.Uint32()))
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", multicastIpAddress, d.Port))
	if err != nil {
		return err
	}
	d.conn, err = net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	d.sendConn, err = net.DialUDP("udp4", nil, addr)
	if err != nil {
		return errors.Join(err, d.conn.Close())
	}
	go d.listen()
	go d.announce()
	return nil
}

// Close stops both goroutines and closes the underlying UDP connections.
func (d *Discover) Close() error {
	close(d.done)
	err1 := d.conn.Close()
	err2 := d.sendConn.Close()
	return errors.Join(err1, err2)
}

// parse strips the sender key, dropping our own packets.
func (d *Discover) parse(message []byte) ([]byte, bool) {
	if len(message) < keySize || string(message[:keySize]) == string(d.key) {
		return nil, false
	}
	return message[keySize:], true
}

func (d *Discover) listen() {
	defer close(d.Entries)
	buffer := make([]byte, maxDatagram)
	for {
		n, _, err := d.conn.ReadFromUDP(buffer)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				d.Logger.Error("discovery listener stopped", "error", err)
			}
			return
		}
		info, ok := d.parse(buffer[:n])
		if !ok {
			continue
		}
		entry := Entry{Info: append([]byte(nil), info...), Time: time.Now()}
		select {
		case d.Entries <- entry:
		case <-d.done:
			return
		}
	}
}

func (d *Discover) announce() {
	ticker := time.NewTicker(d.IntervalBetweenAnnouncements)
	defer ticker.Stop()
	for {
		if _, err := d.sendConn.Write(append(append([]byte{}, d.key...), d.Info...)); err != nil {
			if !errors.Is(err, net.ErrClosed) {
				d.Logger.Error("discovery announcer stopped", "error", err)
			}
			return
		}
		select {
		case <-ticker.C:
		case <-d.done:
			return
		}
	}
}
