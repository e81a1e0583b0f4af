package probe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"strconv"
	"testing"
	"time"
)

func TestVarInt_RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, 127, 128, 255, 25565, 2097151, 2147483647} {
		b := appendVarInt(nil, v)
		got, err := readVarInt(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("readVarInt(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
	}
}

func TestVarInt_TooLong(t *testing.T) {
	if _, err := readVarInt(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})); err == nil {
		t.Fatalf("expected error for oversized varint")
	}
}

// fakeStatusServer accepts one connection, consumes the handshake and
// status request frames, and replies with the given status JSON.
func fakeStatusServer(t *testing.T, status any) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		br := bufio.NewReader(conn)
		for i := 0; i < 2; i++ { // handshake, then status request
			length, err := readVarInt(br)
			if err != nil || length <= 0 {
				return
			}
			if _, err := io.CopyN(io.Discard, br, int64(length)); err != nil {
				return
			}
		}

		body, _ := json.Marshal(status)
		var packet []byte
		packet = appendVarInt(packet, statusPacketID)
		packet = appendVarInt(packet, int32(len(body)))
		packet = append(packet, body...)

		var frame []byte
		frame = appendVarInt(frame, int32(len(packet)))
		frame = append(frame, packet...)
		_, _ = conn.Write(frame)
	}()

	return splitAddr(t, ln.Addr().String())
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func TestStatusPinger_Online(t *testing.T) {
	host, port := fakeStatusServer(t, map[string]any{
		"version":     map[string]any{"name": "1.21.4"},
		"players":     map[string]any{"max": 100, "online": 7},
		"description": map[string]any{"text": "A Minecraft Server"},
	})

	out := NewStatusPinger(2 * time.Second).Ping(context.Background(), host, port)
	if !out.Online {
		t.Fatalf("want online, got %+v", out)
	}
	if out.PlayersOnline == nil || *out.PlayersOnline != 7 {
		t.Fatalf("players online wrong: %+v", out.PlayersOnline)
	}
	if out.PlayersMax == nil || *out.PlayersMax != 100 {
		t.Fatalf("players max wrong: %+v", out.PlayersMax)
	}
	if out.Version == nil || *out.Version != "1.21.4" {
		t.Fatalf("version wrong: %+v", out.Version)
	}
	if out.MOTD == nil || *out.MOTD != "A Minecraft Server" {
		t.Fatalf("motd wrong: %+v", out.MOTD)
	}
	if out.LatencyMS == nil || *out.LatencyMS < 0 {
		t.Fatalf("latency should be set and non-negative: %+v", out.LatencyMS)
	}
}

func TestStatusPinger_StringDescription(t *testing.T) {
	host, port := fakeStatusServer(t, map[string]any{
		"version":     map[string]any{"name": "1.8.9"},
		"players":     map[string]any{"max": 20, "online": 0},
		"description": "plain motd",
	})

	out := NewStatusPinger(2 * time.Second).Ping(context.Background(), host, port)
	if !out.Online || out.MOTD == nil || *out.MOTD != "plain motd" {
		t.Fatalf("string description not handled: %+v", out)
	}
}

func TestStatusPinger_RefusedIsOfflineWithoutFields(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	host, port := splitAddr(t, ln.Addr().String())
	_ = ln.Close() // nothing listens here anymore

	start := time.Now()
	out := NewStatusPinger(3 * time.Second).Ping(context.Background(), host, port)
	if out.Online {
		t.Fatalf("want offline, got %+v", out)
	}
	if out.Reason == "" {
		t.Fatalf("want a diagnostic reason for logging")
	}
	if out.PlayersOnline != nil || out.PlayersMax != nil || out.Version != nil || out.MOTD != nil || out.LatencyMS != nil {
		t.Fatalf("offline result must not carry optional fields: %+v", out)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("refused connection took longer than the budget: %v", elapsed)
	}
}

func TestStatusPinger_SilentPeerBoundedByBudget(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// accept and never reply; the prober's deadline must cut this off
		defer conn.Close()
		time.Sleep(5 * time.Second)
	}()
	host, port := splitAddr(t, ln.Addr().String())

	start := time.Now()
	out := NewStatusPinger(200 * time.Millisecond).Ping(context.Background(), host, port)
	if out.Online {
		t.Fatalf("want offline for silent peer, got %+v", out)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("silent peer was not bounded by the budget: %v", elapsed)
	}
}

func TestStatusPinger_MalformedReplyIsOffline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
	}()
	host, port := splitAddr(t, ln.Addr().String())

	out := NewStatusPinger(time.Second).Ping(context.Background(), host, port)
	if out.Online {
		t.Fatalf("garbage reply should collapse to offline, got %+v", out)
	}
}
