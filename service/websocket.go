package service

import (
	"strings"

	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/ouroerrors"
	"github.com/ouroborosapi/ouroboros/syncer"
)

// WebSocketService provides CRUD over the AsyncAPI specification document:
// channels, component messages and operations.
//
// Channel lifecycle is tied to operations: a channel is retained only while
// referenced by at least one operation, so orphaned channels are pruned after
// every operation delete or update.
type WebSocketService struct {
	co  *Coordinator
	syn *syncer.Syncer
	log document.Logger
}

// NewWebSocketService creates a websocket service over the coordinator's
// document. The coordinator should use KindWebSocket.
func NewWebSocketService(co *Coordinator) *WebSocketService {
	return &WebSocketService{
		co:  co,
		syn: syncer.New(syncer.WithLogger(co.log)),
		log: co.log.With("service", "websocket"),
	}
}

// Document returns a copy of the full enriched document.
func (s *WebSocketService) Document() (*document.Map, error) {
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		out = doc.Clone()
		return nil
	})
	return out, err
}

// CreateChannel adds a channel by address name.
func (s *WebSocketService) CreateChannel(name string, channel *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		channels := document.EnsureChannels(doc)
		if channels.GetMap(name) != nil {
			return ouroerrors.Duplicate("channel", name)
		}
		channels.Set(name, channel.Clone())
		s.log.Info("channel created", "channel", name)
		return nil
	})
}

// GetChannel returns a copy of the named channel.
func (s *WebSocketService) GetChannel(name string) (*document.Map, error) {
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		channel := document.Channels(doc).GetMap(name)
		if channel == nil {
			return ouroerrors.NotFound("channel", name)
		}
		out = channel.Clone()
		return nil
	})
	return out, err
}

// UpdateChannel replaces the named channel.
func (s *WebSocketService) UpdateChannel(name string, channel *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		channels := document.Channels(doc)
		if channels.GetMap(name) == nil {
			return ouroerrors.NotFound("channel", name)
		}
		channels.Set(name, channel.Clone())
		s.log.Info("channel updated", "channel", name)
		return nil
	})
}

// DeleteChannel removes the named channel.
func (s *WebSocketService) DeleteChannel(name string) error {
	return s.co.Write(func(doc *document.Map) error {
		if !document.EnsureChannels(doc).Delete(name) {
			return ouroerrors.NotFound("channel", name)
		}
		s.log.Info("channel deleted", "channel", name)
		return nil
	})
}

// CreateMessage adds a component message. The name fallback applies to
// duplicate detection, matching the schema service behavior.
func (s *WebSocketService) CreateMessage(name string, message *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		messages := document.EnsureMessages(doc)
		if _, _, ok := document.LookupSchema(messages, name); ok {
			return ouroerrors.Duplicate("message", name)
		}
		messages.Set(name, message.Clone())
		s.log.Info("message created", "message", name)
		return nil
	})
}

// GetMessage returns a copy of the named component message.
func (s *WebSocketService) GetMessage(name string) (*document.Map, error) {
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		message, _, ok := document.LookupSchema(document.Messages(doc), name)
		if !ok {
			return ouroerrors.NotFound("message", name)
		}
		out = message.Clone()
		return nil
	})
	return out, err
}

// UpdateMessage replaces the named component message.
func (s *WebSocketService) UpdateMessage(name string, message *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		messages := document.EnsureMessages(doc)
		_, resolved, ok := document.LookupSchema(messages, name)
		if !ok {
			return ouroerrors.NotFound("message", name)
		}
		messages.Set(resolved, message.Clone())
		s.log.Info("message updated", "message", resolved)
		return nil
	})
}

// DeleteMessage removes the named component message, with name fallback.
func (s *WebSocketService) DeleteMessage(name string) error {
	return s.co.Write(func(doc *document.Map) error {
		messages := document.EnsureMessages(doc)
		_, resolved, ok := document.LookupSchema(messages, name)
		if !ok {
			return ouroerrors.NotFound("message", name)
		}
		messages.Delete(resolved)
		s.log.Info("message deleted", "message", resolved)
		return nil
	})
}

// CreateOperation adds an AsyncAPI operation.
func (s *WebSocketService) CreateOperation(name string, op *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		operations := document.EnsureOperations(doc)
		if operations.GetMap(name) != nil {
			return ouroerrors.Duplicate("operation", name)
		}
		operations.Set(name, op.Clone())
		s.log.Info("operation created", "operation", name)
		return nil
	})
}

// GetOperation returns a copy of the named operation.
func (s *WebSocketService) GetOperation(name string) (*document.Map, error) {
	var out *document.Map
	err := s.co.Read(func(doc *document.Map) error {
		op := document.Operations(doc).GetMap(name)
		if op == nil {
			return ouroerrors.NotFound("operation", name)
		}
		out = op.Clone()
		return nil
	})
	return out, err
}

// UpdateOperation replaces the named operation and prunes channels its old
// version may have been the last reference to.
func (s *WebSocketService) UpdateOperation(name string, op *document.Map) error {
	return s.co.Write(func(doc *document.Map) error {
		operations := document.Operations(doc)
		if operations.GetMap(name) == nil {
			return ouroerrors.NotFound("operation", name)
		}
		operations.Set(name, op.Clone())
		s.pruneOrphanChannels(doc)
		s.log.Info("operation updated", "operation", name)
		return nil
	})
}

// DeleteOperation removes the named operation and prunes channels left
// without a live reference.
func (s *WebSocketService) DeleteOperation(name string) error {
	return s.co.Write(func(doc *document.Map) error {
		if !document.EnsureOperations(doc).Delete(name) {
			return ouroerrors.NotFound("operation", name)
		}
		s.pruneOrphanChannels(doc)
		s.log.Info("operation deleted", "operation", name)
		return nil
	})
}

// Reconcile updates diff markers and pulls missing channel graphs from the
// scanned spec, persisting when anything changed.
func (s *WebSocketService) Reconcile(scanned *document.Map) (*syncer.Result, error) {
	var res *syncer.Result
	err := s.co.Write(func(doc *document.Map) error {
		res = s.syn.ReconcileWebSocket(doc, scanned)
		return nil
	})
	return res, err
}

// Promote pulls a scanned-only operation into the file spec with its
// channel, messages and schemas.
func (s *WebSocketService) Promote(scanned *document.Map, name string) (*syncer.Result, error) {
	var res *syncer.Result
	err := s.co.Write(func(doc *document.Map) error {
		var promoteErr error
		res, promoteErr = s.syn.PromoteWebSocket(doc, scanned, name)
		return promoteErr
	})
	return res, err
}

// pruneOrphanChannels removes channels no live operation references.
func (s *WebSocketService) pruneOrphanChannels(doc *document.Map) {
	channels := document.Channels(doc)
	if channels == nil {
		return
	}
	referenced := make(map[string]bool)
	operations := document.Operations(doc)
	for _, name := range operations.Keys() {
		ref := operations.GetMap(name).GetMap("channel").GetString("$ref")
		if channelName, ok := strings.CutPrefix(ref, "#/channels/"); ok {
			referenced[channelName] = true
		}
	}
	for _, name := range channels.Keys() {
		if !referenced[name] {
			channels.Delete(name)
			s.log.Info("pruned orphaned channel", "channel", name)
		}
	}
}
