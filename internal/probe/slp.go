package probe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds the entire probe: dial, handshake, and the status
// response read. A peer that accepts the connection but never replies is
// still cut off by this budget.
const DefaultTimeout = 3 * time.Second

const (
	// Protocol version sent in the handshake. Servers answer a status
	// request regardless of the version, so any recent one works.
	handshakeProtocol = 767

	handshakePacketID = 0x00
	statusPacketID    = 0x00
	statusNextState   = 1

	// Status payloads bigger than this are treated as malformed rather
	// than buffered.
	maxStatusBytes = 1 << 21
)

// StatusPinger speaks the Server List Ping status handshake directly over a
// TCP connection: one length-prefixed handshake packet, one empty status
// request, one length-prefixed JSON status response.
type StatusPinger struct {
	Dialer  net.Dialer
	Timeout time.Duration
}

func NewStatusPinger(timeout time.Duration) *StatusPinger {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &StatusPinger{Timeout: timeout}
}

// Ping runs one status query. Every failure mode — refused connection,
// elapsed budget, garbage on the wire — collapses to an offline Result; the
// cause survives only in Result.Reason for logging.
func (p *StatusPinger) Ping(ctx context.Context, host string, port int) Result {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.Dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return offline("connect: " + err.Error())
	}
	defer conn.Close()

	// The ctx deadline only covers the dial; mirror it onto the conn so
	// the handshake and read share the same budget.
	if d, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(d)
	}

	status, err := exchangeStatus(conn, host, port)
	if err != nil {
		return offline(err.Error())
	}
	latency := time.Since(start).Milliseconds()

	players := status.Players.Online
	maxPlayers := status.Players.Max
	version := status.Version.Name
	motd := descriptionText(status.Description)

	return Result{
		Online:        true,
		LatencyMS:     &latency,
		PlayersOnline: &players,
		PlayersMax:    &maxPlayers,
		Version:       &version,
		MOTD:          &motd,
	}
}

func offline(reason string) Result {
	return Result{Online: false, Reason: reason}
}

// statusResponse is the subset of the status JSON the monitor cares about.
type statusResponse struct {
	Version struct {
		Name string `json:"name"`
	} `json:"version"`
	Players struct {
		Max    int64 `json:"max"`
		Online int64 `json:"online"`
	} `json:"players"`
	Description json.RawMessage `json:"description"`
}

func exchangeStatus(conn net.Conn, host string, port int) (*statusResponse, error) {
	var payload []byte
	payload = appendVarInt(payload, handshakePacketID)
	payload = appendVarInt(payload, handshakeProtocol)
	payload = appendVarInt(payload, int32(len(host)))
	payload = append(payload, host...)
	payload = binary.BigEndian.AppendUint16(payload, uint16(port))
	payload = appendVarInt(payload, statusNextState)

	var frame []byte
	frame = appendVarInt(frame, int32(len(payload)))
	frame = append(frame, payload...)
	// status request: an empty packet, just the id
	frame = appendVarInt(frame, 1)
	frame = appendVarInt(frame, statusPacketID)

	if _, err := conn.Write(frame); err != nil {
		return nil, fmt.Errorf("handshake write: %w", err)
	}

	br := bufio.NewReader(conn)
	length, err := readVarInt(br)
	if err != nil {
		return nil, fmt.Errorf("response length: %w", err)
	}
	if length <= 0 || length > maxStatusBytes {
		return nil, fmt.Errorf("malformed response length %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, fmt.Errorf("response read: %w", err)
	}

	rd := bytes.NewReader(body)
	id, err := readVarInt(rd)
	if err != nil || id != statusPacketID {
		return nil, errors.New("unexpected response packet")
	}
	jsonLen, err := readVarInt(rd)
	if err != nil || int(jsonLen) != rd.Len() {
		return nil, errors.New("malformed status payload")
	}

	var status statusResponse
	if err := json.Unmarshal(body[len(body)-rd.Len():], &status); err != nil {
		return nil, fmt.Errorf("status json: %w", err)
	}
	return &status, nil
}

// descriptionText extracts the human-readable MOTD. Servers send it either
// as a plain JSON string or as a chat component object with a "text" field
// and optional "extra" parts.
func descriptionText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var chat struct {
		Text  string `json:"text"`
		Extra []struct {
			Text string `json:"text"`
		} `json:"extra"`
	}
	if err := json.Unmarshal(raw, &chat); err != nil {
		return ""
	}
	out := chat.Text
	for _, e := range chat.Extra {
		out += e.Text
	}
	return out
}

func appendVarInt(b []byte, v int32) []byte {
	u := uint32(v)
	for u&^0x7F != 0 {
		b = append(b, byte(u&0x7F|0x80))
		u >>= 7
	}
	return append(b, byte(u))
}

type byteReader interface {
	ReadByte() (byte, error)
}

func readVarInt(r byteReader) (int32, error) {
	var v uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(v), nil
		}
	}
	return 0, errors.New("varint too long")
}
