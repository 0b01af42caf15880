package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestAllToAll(t *testing.T) {
	n := 3
	listeners, addresses := CreateListeners(n)
	fatal := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		go func() {
			peer := NewPeer(i, addresses, listeners[i], WithTimeout(30*time.Second))
			p := NewP2P(peer)
			defer func() {
				fatal <- p.Close()
			}()
			actual, err := p.AllToAll(context.Background(), []byte(strconv.Itoa(i)))
			if err != nil {
				fatal <- err
				return
			}
			if len(actual) != n {
				fatal <- fmt.Errorf("from peer %d: expected list of length %d, %v given", i, n, actual)
				return
			}
			for j := 0; j < n; j++ {
				if strconv.Itoa(j) != string(actual[j]) {
					fatal <- fmt.Errorf("from peer %d: expected %d, actual %v", i, j, actual[j])
					return
				}
			}
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-fatal; err != nil {
			t.Fatal(err)
		}
	}
}

func TestBroadcast(t *testing.T) {
	n := 5
	listeners, addresses := CreateListeners(n)
	root := 3
	fatal := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		go func() {
			peer := NewPeer(i, addresses, listeners[i], WithTimeout(30*time.Second))
			p := NewP2P(peer)
			defer func() {
				fatal <- p.Close()
			}()
			time.Sleep(time.Millisecond * 50 * time.Duration(p.GetRank()))
			recv, err := p.Broadcast(context.Background(), []byte{0, byte(10 * i)}, root)
			if err != nil {
				fatal <- err
				return
			}
			if len(recv) != 2 || recv[1] != byte(root*10) {
				fatal <- fmt.Errorf("from peer %d: expected [0 %d], actual %v", i, root*10, recv)
			}
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-fatal; err != nil {
			t.Fatal(err)
		}
	}
}

func TestExchangeTwoPeers(t *testing.T) {
	listeners, addresses := CreateListeners(2)
	fatal := make(chan error, 4)
	for i := 0; i < 2; i++ {
		go func() {
			peer := NewPeer(i, addresses, listeners[i], WithTimeout(10*time.Second))
			p := NewP2P(peer)
			defer func() {
				fatal <- p.Close()
			}()
			// the second peer shows up late, the first one must keep retrying
			time.Sleep(time.Duration(i) * 300 * time.Millisecond)
			for round := 0; round < 3; round++ {
				sent := fmt.Sprintf("peer %d round %d", i, round)
				recv, err := p.Exchange(context.Background(), []byte(sent))
				if err != nil {
					fatal <- err
					return
				}
				expected := fmt.Sprintf("peer %d round %d", 1-i, round)
				if string(recv) != expected {
					fatal <- fmt.Errorf("from peer %d: expected %q, actual %q", i, expected, recv)
					return
				}
			}
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-fatal; err != nil {
			t.Fatal(err)
		}
	}
}

func TestExchangeRequiresTwoPeers(t *testing.T) {
	listeners, addresses := CreateListeners(3)
	peer := NewPeer(0, addresses, listeners[0])
	defer peer.Close()
	for i := 1; i < 3; i++ {
		listeners[i].Close()
	}
	_, err := NewP2P(peer).Exchange(context.Background(), []byte("x"))
	if !errors.Is(err, ErrNotTwoParty) {
		t.Fatalf("expected ErrNotTwoParty, got %v", err)
	}
}

func TestBroadcastTimeout(t *testing.T) {
	listeners, addresses := CreateListeners(2)
	listeners[0].Close()
	peer := NewPeer(1, addresses, listeners[1], WithTimeout(200*time.Millisecond))
	defer peer.Close()
	start := time.Now()
	_, err := peer.Broadcast(context.Background(), nil, 0)
	if !errors.Is(err, ErrPeerTimeout) {
		t.Fatalf("expected ErrPeerTimeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout took %s", time.Since(start))
	}
}

func TestPostGivesUpWhenContextEnds(t *testing.T) {
	listeners, addresses := CreateListeners(2)
	listeners[1].Close()
	peer := NewPeer(0, addresses, listeners[0])
	defer peer.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := peer.Broadcast(ctx, []byte("lost"), 0)
	if err == nil {
		t.Fatal("expected an error when nobody listens")
	}
}

func TestHandlerAcceptsOnlyCurrentStep(t *testing.T) {
	h := &broadcastHandler{
		contentChannel: make(chan []byte, 1),
		errChannel:     make(chan error, 1),
	}
	send := func(clock, sender string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("payload"))
		if clock != "" {
			req.Header.Set(clockHeader, clock)
		}
		req.Header.Set(senderHeader, sender)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("1", "0"); code != http.StatusNotAcceptable {
		t.Fatalf("inactive handler answered %d", code)
	}
	h.clock.Store(4)
	h.root.Store(1)
	h.active.Store(true)
	if code := send("3", "1"); code != http.StatusNotAcceptable {
		t.Fatalf("stale clock answered %d", code)
	}
	if code := send("4", "0"); code != http.StatusNotAcceptable {
		t.Fatalf("wrong sender answered %d", code)
	}
	if code := send("", "1"); code != http.StatusNotAcceptable {
		t.Fatalf("missing clock answered %d", code)
	}
	if err := <-h.errChannel; err == nil {
		t.Fatal("missing clock must be reported")
	}
	if code := send("4", "1"); code != http.StatusAccepted {
		t.Fatalf("current step answered %d", code)
	}
	if got := string(<-h.contentChannel); got != "payload" {
		t.Fatalf("expected payload, got %q", got)
	}
}
