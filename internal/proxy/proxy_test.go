package proxy

import (
	"errors"
	"io"
	"net"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		wantErr bool
	}{
		{"127.0.0.1:1080", false},
		{"localhost:9050", false},
		{"[::1]:1080", false},
		{"127.0.0.1", true},
		{":1080", true},
		{"host:0", true},
		{"host:65536", true},
		{"host:abc", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()

			d, err := New(tt.address)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Address() != tt.address {
				t.Errorf("Address() = %q", d.Address())
			}
			if d.Transport().DialContext == nil {
				t.Error("expected transport to dial through the proxy")
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		name   string
		err    error
	}{
		{StatusOK, "OK", nil},
		{StatusWrongType, "wrong type (not SOCKS5)", ErrNotSOCKS5},
		{StatusCannotConnect, "cannot connect", ErrCannotConnect},
		{StatusTimeout, "timeout", ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.status.String() != tt.name {
				t.Errorf("String() = %q", tt.status.String())
			}
			if !errors.Is(tt.status.Err(), tt.err) {
				t.Errorf("Err() = %v, want %v", tt.status.Err(), tt.err)
			}
		})
	}
	if Status(99).Err() == nil {
		t.Error("expected error for unknown status")
	}
}

// fakeProxy accepts one connection, reads the greeting and answers reply.
func fakeProxy(t *testing.T, reply []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		greeting := make([]byte, 3)
		if _, err := io.ReadFull(conn, greeting); err != nil {
			return
		}
		_, _ = conn.Write(reply)
	}()
	return ln.Addr().String()
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply []byte
		want  Status
	}{
		{name: "socks5 no auth", reply: []byte{0x05, 0x00}, want: StatusOK},
		{name: "auth required", reply: []byte{0x05, 0xFF}, want: StatusWrongType},
		{name: "socks4 server", reply: []byte{0x04, 0x00}, want: StatusWrongType},
		{name: "http server", reply: []byte("H"), want: StatusWrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := New(fakeProxy(t, tt.reply))
			if err != nil {
				t.Fatal(err)
			}
			if got := d.Check(t.Context()); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheck_CannotConnect(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	d, err := New(addr)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Check(t.Context()); got != StatusCannotConnect {
		t.Errorf("Check() = %v, want cannot connect", got)
	}
}
