// Package discovery finds opponents on the local network through UDP
// multicast announcements.
//
//	lobby, err := discovery.NewLobby(discovery.Info{Name: "alice", Address: "192.168.1.4:41000"}, 9999, time.Second)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := lobby.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer lobby.Close()
//	opponent := <-lobby.Infos
//
// Behavior:
//   - Announcements are sent via UDP multicast to 239.0.0.1 on the given port.
//   - Each instance prefixes its packets with a random 8-byte key and ignores
//     packets carrying its own key.
//   - Every distinct Info is delivered once on the Infos channel.
package discovery
