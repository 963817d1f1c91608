package protocol

import (
	"io"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/app/protocol/errorreporter"
	"github.com/marabunet/marabud/app/protocol/flows/dispatch"
	"github.com/marabunet/marabud/app/protocol/flows/handshake"
	"github.com/marabunet/marabud/app/protocol/protocolerrors"
	"github.com/marabunet/marabud/infrastructure/network/netadapter"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/jsonwire"
	"github.com/pkg/errors"
)

// peerConnection is the per-connection state owned by a connection's
// processing loop.
type peerConnection struct {
	*netadapter.NetConnection
	gate       *handshake.Gate
	dispatcher *dispatch.Dispatcher
	errorCount int
	maxErrors  int
	isReady    bool
}

func (m *Manager) handleConnection(connection *netadapter.NetConnection) {
	m.closeLock.Lock()
	if m.isClosed {
		m.closeLock.Unlock()
		return
	}
	m.connectionsWaitGroup.Add(1)
	m.closeLock.Unlock()
	defer m.connectionsWaitGroup.Done()

	peer := &peerConnection{
		NetConnection: connection,
		gate:          handshake.NewGate(connection.Address()),
		dispatcher:    dispatch.New(m.domain, connection.Address()),
		maxErrors:     m.cfg.MaxProtocolErrors,
	}
	defer func() {
		peer.gate.Close()
		if peer.isReady {
			m.removeReadyPeer(connection)
		}
	}()

	err := m.sendGreeting(connection)
	if err != nil {
		log.Debugf("Failed to greet %s: %s", connection, err)
		return
	}

	for {
		frame, err := connection.ReadFrame()
		if err != nil {
			m.handleReadError(peer, err)
			return
		}
		isDisconnected := m.handleFrame(peer, frame)
		if isDisconnected {
			return
		}
	}
}

// sendGreeting queues our own hello followed by a request for the peer's
// known addresses.
func (m *Manager) sendGreeting(connection *netadapter.NetConnection) error {
	err := connection.Enqueue(appmessage.NewMsgHello(appmessage.ProtocolVersion, m.cfg.Agent()))
	if err != nil {
		return err
	}
	return connection.Enqueue(appmessage.NewMsgGetPeers())
}

// handleFrame runs one frame through validation, the handshake gate and the
// dispatcher, and returns whether the connection was disconnected.
func (m *Manager) handleFrame(peer *peerConnection, frame []byte) bool {
	message, err := jsonwire.DecodeMessage(frame)
	if err != nil {
		return m.reportInvalidFrame(peer, peer.gate.RejectInvalid(err))
	}
	log.Tracef("Received %s message from %s", message.Command(), peer)

	shouldDispatch, err := peer.gate.Admit(message)
	if err != nil {
		return m.reportError(peer, err)
	}
	if !peer.isReady && peer.gate.State() == handshake.StateReady {
		peer.isReady = true
		peer.CompleteHandshake()
		msgHello := peer.gate.PeerHello()
		m.addReadyPeer(peer.NetConnection, msgHello)
		log.Infof("Peer %s is ready (agent %q, version %s)", peer, msgHello.Agent, msgHello.Version)
	}
	if !shouldDispatch {
		return false
	}

	replies, err := peer.dispatcher.Dispatch(message)
	if err != nil {
		return m.reportError(peer, err)
	}
	for _, reply := range replies {
		err := peer.Enqueue(reply)
		if err != nil {
			log.Debugf("Failed to queue %s message for %s: %s", reply.Command(), peer, err)
			peer.Disconnect()
			return true
		}
	}
	return false
}

// reportError sends err to the peer and returns whether the connection was
// disconnected.
func (m *Manager) reportError(peer *peerConnection, err error) bool {
	return errorreporter.Report(peer, err)
}

// reportInvalidFrame reports a frame that failed parsing or validation.
// These are the only errors counted against the peer's budget; once the
// peer exceeds it the connection is disconnected after the report.
func (m *Manager) reportInvalidFrame(peer *peerConnection, err error) bool {
	isDisconnected := m.reportError(peer, err)
	if isDisconnected {
		return true
	}

	peer.errorCount++
	if peer.maxErrors > 0 && peer.errorCount > peer.maxErrors {
		log.Infof("Disconnecting %s: exceeded %d invalid messages", peer, peer.maxErrors)
		peer.Disconnect()
		return true
	}
	return false
}

func (m *Manager) handleReadError(peer *peerConnection, err error) {
	switch {
	case errors.Is(err, io.EOF):
		log.Debugf("Peer %s closed the connection", peer)
	case errors.Is(err, netadapter.ErrDisconnected):
		log.Debugf("Stopped reading from %s: disconnected", peer)
	case errors.Is(err, netadapter.ErrHandshakeTimeout):
		timedOutErr := peer.gate.TimedOut(peer.Timeouts().Handshake)
		if timedOutErr != nil {
			errorreporter.Report(peer, timedOutErr)
		}
	case errors.Is(err, jsonwire.ErrFrameTooLarge),
		errors.Is(err, netadapter.ErrPartialTimeout),
		errors.Is(err, netadapter.ErrIdleTimeout):
		errorreporter.Report(peer, protocolerrors.Wrap(true, appmessage.ErrorCodeInvalidFormat, err, "read failed"))
	default:
		log.Debugf("Failed to read from %s: %s", peer, err)
	}
}
