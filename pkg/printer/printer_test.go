package printer

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New(TypeNone, "", "")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Print(context.Background(), []byte("x")), ErrNotConfigured)
	assert.False(t, p.IsConnected(context.Background()))

	_, err = New(TypeUSB, "", "")
	assert.Error(t, err)
	_, err = New(TypeNetwork, "", "")
	assert.Error(t, err)
	_, err = New("bluetooth", "", "")
	assert.Error(t, err)
}

func TestUSBPrinter_WritesToDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	p, err := New(TypeUSB, path, "")
	require.NoError(t, err)
	assert.True(t, p.IsConnected(context.Background()))
	require.NoError(t, p.Print(context.Background(), []byte("hello")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestNetworkPrinter_SendsBytes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(bufio.NewReader(conn))
		received <- data
	}()

	p, err := New(TypeNetwork, "", ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, p.Print(context.Background(), []byte{ESC, '@'}))
	assert.Equal(t, []byte{ESC, '@'}, <-received)
}

func TestDocument_Layout(t *testing.T) {
	doc := NewDocument(20)
	doc.KeyValue("Total:", "27.50").
		ItemLine("2", "Widget", "20.00").
		ItemLine("1", "An extremely long item description", "5.00")

	lines := bytes.Split(doc.Bytes()[2:], []byte{LF})
	assert.Equal(t, "Total:         27.50", string(lines[0]))
	assert.Equal(t, "2 x Widget     20.00", string(lines[1]))
	assert.Equal(t, "1 x An          5.00", string(lines[2]))
	assert.Equal(t, "  extremely long", string(lines[3]))
	assert.Equal(t, "  item", string(lines[4]))
	assert.Equal(t, "  description", string(lines[5]))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"abc", "def"}, wrap("abcdef", 3))
	assert.Equal(t, []string{"ab cd", "ef"}, wrap("ab cd ef", 5))
	assert.Nil(t, wrap("   ", 5))
}
