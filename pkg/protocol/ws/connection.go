package ws

import (
	"bytes"
	"compress/flate"
	"crypto/tls"
	"io"
	"net"
	"net/http"

	"github.com/gobwas/httphead"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsflate"
	"github.com/gobwas/ws/wsutil"

	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// Connection is an outbound client -> relay websocket with optional
// permessage-deflate, carrying one JSON text frame per protocol message.
type Connection struct {
	conn              net.Conn
	enableCompression bool
	controlHandler    wsutil.FrameHandlerFunc
	flateReader       *wsflate.Reader
	reader            *wsutil.Reader
	flateWriter       *wsflate.Writer
	writer            *wsutil.Writer
	msgStateR         *wsflate.MessageState
	msgStateW         *wsflate.MessageState
}

// NewConnection dials url and negotiates the websocket, offering compression.
func NewConnection(
	c context.T, url string, requestHeader http.Header, tlsConfig *tls.Config,
) (connection *Connection, err error) {
	dialer := ws.Dialer{
		Header: ws.HandshakeHeaderHTTP(requestHeader),
		Extensions: []httphead.Option{
			wsflate.DefaultParameters.Option(),
		},
		TLSConfig: tlsConfig,
	}
	var conn net.Conn
	var hs ws.Handshake
	if conn, _, hs, err = dialer.Dial(c, url); err != nil {
		return
	}
	enableCompression := false
	state := ws.StateClientSide
	for _, extension := range hs.Extensions {
		if string(extension.Name) == wsflate.ExtensionName {
			enableCompression = true
			state |= ws.StateExtended
			break
		}
	}
	var flateReader *wsflate.Reader
	var msgStateR wsflate.MessageState
	if enableCompression {
		msgStateR.SetCompressed(true)
		flateReader = wsflate.NewReader(
			nil, func(r io.Reader) wsflate.Decompressor {
				return flate.NewReader(r)
			},
		)
	}
	controlHandler := wsutil.ControlFrameHandler(conn, ws.StateClientSide)
	reader := &wsutil.Reader{
		Source:         conn,
		State:          state,
		OnIntermediate: controlHandler,
		CheckUTF8:      false,
		Extensions: []wsutil.RecvExtension{
			&msgStateR,
		},
	}
	var flateWriter *wsflate.Writer
	var msgStateW wsflate.MessageState
	if enableCompression {
		msgStateW.SetCompressed(true)
		flateWriter = wsflate.NewWriter(
			nil, func(w io.Writer) wsflate.Compressor {
				fw, ferr := flate.NewWriter(w, 4)
				if ferr != nil {
					log.E.F("failed to create flate writer: %v", ferr)
				}
				return fw
			},
		)
	}
	writer := wsutil.NewWriter(conn, state, ws.OpText)
	writer.SetExtensions(&msgStateW)
	connection = &Connection{
		conn:              conn,
		enableCompression: enableCompression,
		controlHandler:    controlHandler,
		flateReader:       flateReader,
		reader:            reader,
		msgStateR:         &msgStateR,
		flateWriter:       flateWriter,
		writer:            writer,
		msgStateW:         &msgStateW,
	}
	return
}

// WriteMessage sends one text frame through the Connection.
func (cn *Connection) WriteMessage(c context.T, data []byte) (err error) {
	select {
	case <-c.Done():
		return errorf.D("%s context canceled", cn.conn.RemoteAddr())
	default:
	}
	if cn.msgStateW.IsCompressed() && cn.enableCompression {
		cn.flateWriter.Reset(cn.writer)
		if _, err = io.Copy(
			cn.flateWriter, bytes.NewReader(data),
		); chk.T(err) {
			return errorf.E(
				"%s failed to write message: %w", cn.conn.RemoteAddr(), err,
			)
		}
		if err = cn.flateWriter.Close(); chk.T(err) {
			return errorf.E(
				"%s failed to close flate writer: %w", cn.conn.RemoteAddr(),
				err,
			)
		}
	} else {
		if _, err = io.Copy(cn.writer, bytes.NewReader(data)); chk.T(err) {
			return errorf.E(
				"%s failed to write message: %w", cn.conn.RemoteAddr(), err,
			)
		}
	}
	if err = cn.writer.Flush(); chk.T(err) {
		return errorf.E(
			"%s failed to flush writer: %w", cn.conn.RemoteAddr(), err,
		)
	}
	return
}

// ReadMessage picks up the next complete data frame, handling interleaved
// control frames along the way.
func (cn *Connection) ReadMessage(c context.T, buf io.Writer) (err error) {
	for {
		select {
		case <-c.Done():
			return errorf.D("%s context canceled", cn.conn.RemoteAddr())
		default:
		}
		var h ws.Header
		if h, err = cn.reader.NextFrame(); err != nil {
			_ = cn.conn.Close()
			return errorf.D(
				"%s failed to advance frame: %s", cn.conn.RemoteAddr(),
				err.Error(),
			)
		}
		if h.OpCode.IsControl() {
			if err = cn.controlHandler(h, cn.reader); chk.T(err) {
				return errorf.E(
					"%s failed to handle control frame: %w",
					cn.conn.RemoteAddr(), err,
				)
			}
			continue
		}
		if h.OpCode == ws.OpBinary || h.OpCode == ws.OpText {
			break
		}
		if err = cn.reader.Discard(); chk.T(err) {
			return errorf.E(
				"%s failed to discard: %w", cn.conn.RemoteAddr(), err,
			)
		}
	}
	if cn.msgStateR.IsCompressed() && cn.enableCompression {
		cn.flateReader.Reset(cn.reader)
		if _, err = io.Copy(buf, cn.flateReader); chk.T(err) {
			return errorf.E(
				"%s failed to read message: %w", cn.conn.RemoteAddr(), err,
			)
		}
	} else {
		if _, err = io.Copy(buf, cn.reader); chk.T(err) {
			return errorf.E(
				"%s failed to read message: %w", cn.conn.RemoteAddr(), err,
			)
		}
	}
	return
}

// Close the Connection. The underlying socket close is idempotent at the
// Client layer.
func (cn *Connection) Close() (err error) { return cn.conn.Close() }
