// Package openrgb is a minimal client for the OpenRGB SDK server TCP
// protocol: just enough to identify a controller by name and stream LED
// updates to it.
package openrgb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coreman2200/glowsync/internal/colorspace"
)

const (
	cmdRequestControllerCount uint32 = 0
	cmdRequestControllerData  uint32 = 1
	cmdSetClientName          uint32 = 50
	cmdUpdateLEDs             uint32 = 1050
	cmdSetCustomMode          uint32 = 1100
)

const headerSize = 16

var magic = [4]byte{'O', 'R', 'G', 'B'}

// ErrDeviceNotFound means no controller matched the configured device name.
var ErrDeviceNotFound = errors.New("openrgb: no matching device")

// Client is a connection to an OpenRGB SDK server. Methods are safe for
// concurrent use; request/response pairs are serialized on the connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to the server at host:port.
func Dial(host string, port int) (*Client, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("openrgb: connect: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// SetName registers a client name with the server; shows up in its UI.
func (c *Client) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(0, cmdSetClientName, append([]byte(name), 0))
}

// ControllerCount returns the number of RGB controllers the server manages.
func (c *Client) ControllerCount() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(0, cmdRequestControllerCount, nil); err != nil {
		return 0, err
	}
	payload, err := c.recv(cmdRequestControllerCount)
	if err != nil {
		return 0, err
	}
	if len(payload) < 4 {
		return 0, errors.New("openrgb: short controller count response")
	}
	return int(binary.LittleEndian.Uint32(payload)), nil
}

// ControllerName fetches controller idx's data block and extracts its name.
// Only the leading fields are parsed; the rest of the block (modes, zones,
// LED lists) is not needed here.
func (c *Client) ControllerName(idx uint32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(idx, cmdRequestControllerData, nil); err != nil {
		return "", err
	}
	payload, err := c.recv(cmdRequestControllerData)
	if err != nil {
		return "", err
	}
	// Layout: u32 data_size, i32 device_type, u16 name_len, name bytes
	// (null terminator included in name_len).
	if len(payload) < 10 {
		return "", errors.New("openrgb: short controller data response")
	}
	nameLen := int(binary.LittleEndian.Uint16(payload[8:10]))
	if 10+nameLen > len(payload) {
		return "", errors.New("openrgb: truncated controller name")
	}
	return strings.TrimRight(string(payload[10:10+nameLen]), "\x00"), nil
}

// SetCustomMode switches the controller into its direct-control mode, when
// it has one. Some devices reject this; callers may treat failure as
// non-fatal.
func (c *Client) SetCustomMode(idx uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(idx, cmdSetCustomMode, nil)
}

// UpdateLEDs pushes a full color vector to the controller.
func (c *Client) UpdateLEDs(idx uint32, colors []colorspace.Color) error {
	payload := make([]byte, 6+4*len(colors))
	binary.LittleEndian.PutUint32(payload[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint16(payload[4:], uint16(len(colors)))
	for i, col := range colors {
		off := 6 + 4*i
		payload[off] = col.R
		payload[off+1] = col.G
		payload[off+2] = col.B
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(idx, cmdUpdateLEDs, payload)
}

// FindDevice locates the controller to drive: the first whose name contains
// name, or failing that, the first that looks like a keyboard.
func (c *Client) FindDevice(name string) (uint32, error) {
	count, err := c.ControllerCount()
	if err != nil {
		return 0, err
	}
	names := make([]string, count)
	for i := range names {
		n, err := c.ControllerName(uint32(i))
		if err != nil {
			return 0, err
		}
		names[i] = n
	}
	for i, n := range names {
		if strings.Contains(n, name) {
			return uint32(i), nil
		}
	}
	// A name match beats the fallback, so the fallback scan runs second.
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), "keyboard") {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q among %d controllers", ErrDeviceNotFound, name, count)
}

func (c *Client) send(devIdx, cmd uint32, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	copy(buf, magic[:])
	binary.LittleEndian.PutUint32(buf[4:], devIdx)
	binary.LittleEndian.PutUint32(buf[8:], cmd)
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	if _, err := c.conn.Write(buf); err != nil {
		return fmt.Errorf("openrgb: send: %w", err)
	}
	return nil
}

func (c *Client) recv(wantCmd uint32) ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(c.conn, hdr[:]); err != nil {
		return nil, fmt.Errorf("openrgb: recv: %w", err)
	}
	if [4]byte(hdr[0:4]) != magic {
		return nil, errors.New("openrgb: bad packet magic")
	}
	cmd := binary.LittleEndian.Uint32(hdr[8:12])
	size := binary.LittleEndian.Uint32(hdr[12:16])
	payload := make([]byte, size)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("openrgb: recv payload: %w", err)
	}
	if cmd != wantCmd {
		return nil, fmt.Errorf("openrgb: unexpected reply packet %d, want %d", cmd, wantCmd)
	}
	return payload, nil
}
