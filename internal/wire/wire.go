// Package wire frames protocol messages on a stream connection.
//
// Every message is a little-endian int32 byte length followed by a JSON
// payload. A connection's conversation, in order:
//
//	client → hasCookie bool, then cookie string when true
//	server → cookieValid bool
//	  valid:   server → recoverable bool (false closes the connection)
//	  invalid: client → name string; server → cookie string, or null for a spectator
//	server → waiting hall: names []string, offline []bool, repeated until six names
//	server → field: isPlayer bool, names [6]string, seat int
//	server → round, repeated: gameOver, scores[6], handCounts[6], played[6],
//	         allHands[6] (only when gameOver != 0), myHand, trickScore, turnOrder, headMaster
//	on turn: client → heartbeat bool until true, then hand, play, trickScore;
//	         server → accepted bool, and the client plays again while false
//
// Cards are {"suit":"Spade","value":11}; jokers have suit "". A pass is ["F"].
package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/DoyleJ11/liujiatong-server/internal/card"
	"github.com/DoyleJ11/liujiatong-server/internal/types"
)

var ErrProtocol = errors.New("protocol error")
var ErrConnectionLost = errors.New("connection lost")

const (
	DefaultMaxFrame = 10 << 20
	headerLen       = 4
)

// Conn is one framed connection. It is not safe for concurrent writers.
type Conn struct {
	conn         net.Conn
	maxFrame     int
	readTimeout  time.Duration
	writeTimeout time.Duration
}

type Option func(*Conn)

func WithMaxFrame(n int) Option { return func(c *Conn) { c.maxFrame = n } }

// WithReadTimeout bounds every read; zero waits forever.
func WithReadTimeout(d time.Duration) Option { return func(c *Conn) { c.readTimeout = d } }

func WithWriteTimeout(d time.Duration) Option { return func(c *Conn) { c.writeTimeout = d } }

func NewConn(conn net.Conn, opts ...Option) *Conn {
	c := &Conn{conn: conn, maxFrame: DefaultMaxFrame}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Conn) Close() error { return c.conn.Close() }

func (c *Conn) RemoteAddr() string { return c.conn.RemoteAddr().String() }

func lost(err error) error {
	return fmt.Errorf("%w: %w", ErrConnectionLost, err)
}

// Send writes v as one frame.
func (c *Conn) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrProtocol, err)
	}
	if len(payload) > c.maxFrame {
		return fmt.Errorf("%w: frame of %d bytes exceeds %d", ErrProtocol, len(payload), c.maxFrame)
	}
	buf := make([]byte, headerLen+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[headerLen:], payload)

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return lost(err)
		}
	}
	if _, err := c.conn.Write(buf); err != nil {
		return lost(err)
	}
	return nil
}

// Recv reads one frame into v.
func (c *Conn) Recv(v any) error {
	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return lost(err)
		}
	}
	var header [headerLen]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return lost(err)
	}
	n := int32(binary.LittleEndian.Uint32(header[:]))
	if n < 0 || int(n) > c.maxFrame {
		return fmt.Errorf("%w: frame length %d", ErrProtocol, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return lost(err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrProtocol, err)
	}
	return nil
}

// Recv reads one frame as a T.
func Recv[T any](c *Conn) (T, error) {
	var v T
	err := c.Recv(&v)
	return v, err
}

func (c *Conn) sendAll(vs ...any) error {
	for _, v := range vs {
		if err := c.Send(v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) SendHall(h types.Hall) error {
	return c.sendAll(h.Names, h.Offline)
}

func (c *Conn) SendField(f types.Field) error {
	return c.sendAll(f.IsPlayer, f.Names, f.Seat)
}

// cards keeps empty hands on the wire as [] rather than null.
func cards(cs []card.Card) []card.Card {
	if cs == nil {
		return []card.Card{}
	}
	return cs
}

func seats(all [types.Seats][]card.Card) [types.Seats][]card.Card {
	for i := range all {
		all[i] = cards(all[i])
	}
	return all
}

func (c *Conn) SendRound(r types.Round) error {
	if err := c.sendAll(r.GameOver, r.Scores, r.HandCounts, seats(r.Played)); err != nil {
		return err
	}
	if r.GameOver != 0 {
		var all [types.Seats][]card.Card
		if r.AllHands != nil {
			all = *r.AllHands
		}
		if err := c.Send(seats(all)); err != nil {
			return err
		}
	}
	return c.sendAll(cards(r.MyHand), r.TrickScore, r.TurnOrder, r.HeadMaster)
}

func (c *Conn) SendVerdict(accepted bool) error { return c.Send(accepted) }

func (c *Conn) RecvHeartbeat() (bool, error) { return Recv[bool](c) }

func (c *Conn) RecvReply() (types.Reply, error) {
	var r types.Reply
	var err error
	if r.Hand, err = Recv[[]card.Card](c); err != nil {
		return r, err
	}
	if r.Play, err = Recv[types.Play](c); err != nil {
		return r, err
	}
	if r.TrickScore, err = Recv[int](c); err != nil {
		return r, err
	}
	return r, nil
}

// Client side of the same conversation, used by bots and tests.

func (c *Conn) RecvHall() (types.Hall, error) {
	var h types.Hall
	var err error
	if h.Names, err = Recv[[]string](c); err != nil {
		return h, err
	}
	h.Offline, err = Recv[[]bool](c)
	return h, err
}

func (c *Conn) RecvField() (types.Field, error) {
	var f types.Field
	var err error
	if f.IsPlayer, err = Recv[bool](c); err != nil {
		return f, err
	}
	if f.Names, err = Recv[[types.Seats]string](c); err != nil {
		return f, err
	}
	f.Seat, err = Recv[int](c)
	return f, err
}

func (c *Conn) RecvRound() (types.Round, error) {
	var r types.Round
	var err error
	if r.GameOver, err = Recv[int](c); err != nil {
		return r, err
	}
	if r.Scores, err = Recv[[types.Seats]int](c); err != nil {
		return r, err
	}
	if r.HandCounts, err = Recv[[types.Seats]int](c); err != nil {
		return r, err
	}
	if r.Played, err = Recv[[types.Seats][]card.Card](c); err != nil {
		return r, err
	}
	if r.GameOver != 0 {
		all, err := Recv[[types.Seats][]card.Card](c)
		if err != nil {
			return r, err
		}
		r.AllHands = &all
	}
	if r.MyHand, err = Recv[[]card.Card](c); err != nil {
		return r, err
	}
	if r.TrickScore, err = Recv[int](c); err != nil {
		return r, err
	}
	if r.TurnOrder, err = Recv[int](c); err != nil {
		return r, err
	}
	r.HeadMaster, err = Recv[int](c)
	return r, err
}

func (c *Conn) SendReply(r types.Reply) error {
	return c.sendAll(cards(r.Hand), r.Play, r.TrickScore)
}
