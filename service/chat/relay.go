package chat

import (
	"ChatStory/logger"
	"ChatStory/tools/errs"

	"go.uber.org/zap"
)

// Typing relays a typing hint to the sender's peer.
func (h *Hub) Typing(fromID string) error {
	return h.SendMessage(fromID, "", true)
}

// SendMessage forwards text (or a typing hint) to fromID's peer while the
// pairing is symmetric. Otherwise the sender is unpaired, dropped from the
// queue and told its peer left.
func (h *Hub) SendMessage(fromID, text string, isTyping bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[fromID]; !ok {
		logger.Warn("[Hub] send from unknown session", zap.String("session", fromID))
		return errs.ErrSessionUnknown.WrapMsg("send", "session", fromID)
	}
	h.relayLocked(fromID, text, isTyping)
	return nil
}

// SendWithHint relays a typing hint followed by text as one step. A stale
// pairing is reported to the sender once.
func (h *Hub) SendWithHint(fromID, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[fromID]; !ok {
		logger.Warn("[Hub] send from unknown session", zap.String("session", fromID))
		return errs.ErrSessionUnknown.WrapMsg("send", "session", fromID)
	}
	if h.relayLocked(fromID, "", true) {
		h.relayLocked(fromID, text, false)
	}
	return nil
}

// relayLocked reports whether the event reached a peer.
func (h *Hub) relayLocked(fromID, text string, isTyping bool) bool {
	from := h.sessions[fromID]
	to, ok := h.sessions[from.Peer]
	if from.Peer == "" || !ok || to.Peer != fromID {
		from.Peer = ""
		h.queue.Remove(fromID)
		h.push(fromID, from.Channel, PeerLeft())
		return false
	}

	if isTyping {
		h.push(to.ID, to.Channel, Typing(fromID))
		return true
	}

	logger.Debug("[Hub] sending message", zap.String("from", fromID), zap.String("to", to.ID))
	h.push(to.ID, to.Channel, Message(fromID, text))
	return true
}

// Leave ends the current chat of id without disconnecting it.
func (h *Hub) Leave(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[id]; !ok {
		return errs.ErrSessionUnknown.WrapMsg("leave", "session", id)
	}
	h.closeChatLocked(id)
	return nil
}

// closeChatLocked is the only teardown path. The peer is unpaired and told
// once; a peer that already points elsewhere is left alone since its own
// pairing is the valid one.
func (h *Hub) closeChatLocked(leavingID string) {
	from, ok := h.sessions[leavingID]
	if !ok {
		return
	}

	logger.Debug("[Hub] user has left the chat", zap.String("session", leavingID))

	peerID := from.Peer
	if to, ok := h.sessions[peerID]; ok && peerID != "" && to.Peer == leavingID {
		to.Peer = ""
		h.queue.Remove(peerID)
		h.push(peerID, to.Channel, PeerLeft())
	}

	from.Peer = ""
	h.queue.Remove(leavingID)

	if peerID != "" {
		h.notify(NoticeLeft, leavingID, peerID)
	}
}
