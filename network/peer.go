package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	clockHeader  = "Clock"
	senderHeader = "Sender-Rank"
)

var (
	ErrNoAddresses      = errors.New("no addresses found")
	ErrPeerTimeout      = errors.New("the peer waiting for connection timed out")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// Peer is an helper struct for communication between nodes.
// the Rank is an identifier of the Peer.
// Addresses[i] contains the address (host:port) to reach the Peer with Rank i.
type Peer struct {
	Rank      int
	Addresses map[int]string
	clock     uint64
	scheme    string
	server    *http.Server
	handler   *broadcastHandler
	client    *http.Client
	tlsConfig *tls.Config
	timeout   time.Duration
	backOff   func() backoff.BackOff
	logger    *slog.Logger
}

// NewPeer creates the peer with the given rank and starts serving on l.
// l must be bound to addresses[rank].
func NewPeer(rank int, addresses map[int]string, l net.Listener, opts ...PeerOption) *Peer {
	handler := &broadcastHandler{
		contentChannel: make(chan []byte),
		errChannel:     make(chan error, 1),
	}
	p := &Peer{
		Rank:      rank,
		Addresses: copyMap(addresses),
		scheme:    "http",
		handler:   handler,
		client:    &http.Client{},
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 5 * time.Millisecond
			b.MaxInterval = 500 * time.Millisecond
			return b
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client.Timeout = p.timeout
	if p.tlsConfig != nil {
		l = tls.NewListener(l, p.tlsConfig)
	}
	p.server = &http.Server{Addr: addresses[rank], Handler: handler}
	go func() {
		err := p.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("peer server stopped", "rank", p.Rank, "error", err)
		}
	}()
	return p
}

func (p *Peer) Close() error {
	return p.server.Shutdown(context.Background())
}

type broadcastHandler struct {
	active         atomic.Bool
	clock          atomic.Uint64
	root           atomic.Int64
	contentChannel chan []byte
	errChannel     chan error
}

func (h *broadcastHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !h.active.Load() {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	senderClock, err := strconv.ParseUint(req.Header.Get(clockHeader), 10, 64)
	if err != nil {
		rw.WriteHeader(http.StatusNotAcceptable)
		h.report(fmt.Errorf("from handler: Clock field is missing or not a number"))
		return
	}
	if senderClock != h.clock.Load() {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	sender, err := strconv.ParseInt(req.Header.Get(senderHeader), 10, 64)
	if err != nil || sender != h.root.Load() {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	content, err := io.ReadAll(req.Body)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		h.report(fmt.Errorf("from handler: %w", err))
		return
	}
	select {
	case h.contentChannel <- content:
		rw.WriteHeader(http.StatusAccepted)
	case <-req.Context().Done():
	}
}

func (h *broadcastHandler) report(err error) {
	select {
	case h.errChannel <- err:
	default:
	}
}

// Peer with Rank root sends the content of bufferSend to every node.
// bufferRecv will contain the value sent by the Peer with Rank root.
// This function will implicitly synchronize the peers.
func (p *Peer) Broadcast(ctx context.Context, bufferSend []byte, root int) ([]byte, error) {
	bufferRecv, err := p.broadcastNoBarrier(ctx, bufferSend, root)
	if err != nil {
		return nil, err
	}
	if err := p.barrier(ctx); err != nil {
		return nil, err
	}
	return bufferRecv, nil
}

// Each caller of AllToAll sends the content of bufferSend to every node.
// bufferRecv[i] will contain the value sent by the Peer with Rank i.
// This function will implicitly synchronize the peers.
func (p *Peer) AllToAll(ctx context.Context, bufferSend []byte) ([][]byte, error) {
	size, ok := maxKey(p.Addresses)
	if !ok {
		return nil, ErrNoAddresses
	}
	bufferRecv := make([][]byte, size+1)
	for _, i := range p.OrderedRanks() {
		recv, err := p.broadcastNoBarrier(ctx, bufferSend, i)
		if err != nil {
			return nil, err
		}
		bufferRecv[i] = recv
	}
	return bufferRecv, nil
}

// OrderedRanks returns the ranks of all peers in ascending order.
func (p *Peer) OrderedRanks() []int {
	ranks := make([]int, 0, len(p.Addresses))
	for k := range p.Addresses {
		ranks = append(ranks, k)
	}
	sort.Ints(ranks)
	return ranks
}

// barrier synchronizes the peers.
// In particular this method guarantees that no Peer's control flow will
// leave this function until every peer has entered this function.
func (p *Peer) barrier(ctx context.Context) error {
	_, err := p.AllToAll(ctx, nil)
	return err
}

// Peer with Rank root sends the content of bufferSend to every node.
// bufferRecv will contain the value sent by the Peer with Rank root.
func (p *Peer) broadcastNoBarrier(ctx context.Context, bufferSend []byte, root int) ([]byte, error) {
	p.clock++
	if root == p.Rank {
		for _, i := range p.OrderedRanks() {
			if i == p.Rank {
				continue
			}
			if err := p.post(ctx, i, bufferSend); err != nil {
				return nil, err
			}
		}
		return bufferSend, nil
	}
	p.handler.clock.Store(p.clock)
	p.handler.root.Store(int64(root))
	p.handler.active.Store(true)
	defer p.handler.active.Store(false)

	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case recv := <-p.handler.contentChannel:
		return recv, nil
	case err := <-p.handler.errChannel:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, fmt.Errorf("%w: rank %d after %s", ErrPeerTimeout, root, p.timeout)
	}
}

// post delivers bufferSend to the peer with rank to, retrying with backoff
// until the receiver accepts the current clock.
func (p *Peer) post(ctx context.Context, to int, bufferSend []byte) error {
	url := p.scheme + "://" + p.Addresses[to]
	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bufferSend))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set(clockHeader, strconv.FormatUint(p.clock, 10))
		req.Header.Set(senderHeader, strconv.Itoa(p.Rank))
		resp, err := p.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		if err := resp.Body.Close(); err != nil {
			return struct{}{}, err
		}
		if resp.StatusCode != http.StatusAccepted {
			return struct{}{}, fmt.Errorf("%w %d from rank %d", ErrUnexpectedStatus, resp.StatusCode, to)
		}
		return struct{}{}, nil
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithNotify(func(err error, d time.Duration) {
			p.logger.Debug("retrying delivery", "from", p.Rank, "to", to, "clock", p.clock, "in", d, "error", err)
		}),
	}
	if p.timeout > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.timeout))
	}
	if _, err := backoff.Retry(ctx, operation, opts...); err != nil {
		return fmt.Errorf("connection attempts to rank %d failed: %w", to, err)
	}
	return nil
}

// CreateListeners opens n listeners on localhost with ephemeral ports.
// Meant for tests and local duels.
func CreateListeners(n int) (map[int]net.Listener, map[int]string) {
	listeners := make(map[int]net.Listener)
	addresses := make(map[int]string)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			panic(err)
		}
		listeners[i] = l
		addresses[i] = l.Addr().String()
	}
	return listeners, addresses
}

func maxKey(m map[int]string) (max int, ok bool) {
	for k := range m {
		if !ok || k > max {
			max = k
			ok = true
		}
	}
	return
}

func copyMap(original map[int]string) map[int]string {
	copied := make(map[int]string, len(original))
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
