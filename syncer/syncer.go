// Package syncer reconciles a file-based specification against a scanned
// specification derived from live code.
//
// Reconciliation is non-destructive on the file side: operations that exist
// only in the scanned spec are reported as drift, never removed or silently
// imported. Drift for implemented operations is recorded through the
// x-ouroboros-diff marker by comparing flattened schema fingerprints; only
// completed operations are diffed, since mock operations have no
// implementation to compare against yet. The on-demand Promote operations
// pull a scanned-only entry across, together with every schema (and, for
// WebSocket, channel and message) it references, so the file spec stays
// self-contained and importable.
package syncer

import (
	"fmt"
	"strings"

	"github.com/ouroborosapi/ouroboros/differ"
	"github.com/ouroborosapi/ouroboros/document"
	"github.com/ouroborosapi/ouroboros/ouroerrors"
)

// channelRefPrefix is the local reference prefix for AsyncAPI channels.
const channelRefPrefix = "#/channels/"

// messageRefPrefix is the local reference prefix for AsyncAPI component messages.
const messageRefPrefix = "#/components/messages/"

// Result describes the outcome of one reconciliation pass.
type Result struct {
	// MissingFromFile lists scanned entries absent from the file spec, as
	// "METHOD path" for REST or the operation name for WebSocket. These are
	// drift reports; nothing is changed automatically.
	MissingFromFile []string
	// DiffUpdated lists operations whose x-ouroboros-diff marker changed.
	DiffUpdated []string
	// PulledChannels, PulledMessages and PulledSchemas list definitions
	// copied across to keep the file spec self-contained.
	PulledChannels []string
	PulledMessages []string
	PulledSchemas  []string
}

// Changed reports whether reconciliation modified the file document.
func (r *Result) Changed() bool {
	return len(r.DiffUpdated)+len(r.PulledChannels)+len(r.PulledMessages)+len(r.PulledSchemas) > 0
}

// Syncer reconciles file specs against scanned specs.
type Syncer struct {
	log  document.Logger
	diff *differ.Differ
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger used for diagnostics. Defaults to NopLogger.
func WithLogger(log document.Logger) Option {
	return func(s *Syncer) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Syncer.
func New(opts ...Option) *Syncer {
	s := &Syncer{log: document.NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	s.diff = differ.New(differ.WithLogger(s.log))
	return s
}

// ReconcileREST compares the scanned OpenAPI spec against the file spec,
// recording drift and updating diff markers on the file document in place.
func (s *Syncer) ReconcileREST(file, scanned *document.Map) *Result {
	res := &Result{}
	filePaths := document.Paths(file)
	scannedPaths := document.Paths(scanned)
	if scannedPaths == nil {
		return res
	}

	for _, path := range scannedPaths.Keys() {
		scannedItem := scannedPaths.GetMap(path)
		if scannedItem == nil {
			continue
		}
		for _, method := range scannedItem.Keys() {
			if !document.IsHTTPMethod(method) {
				continue
			}
			fileOp := operationAt(filePaths, path, method)
			if fileOp == nil {
				// Scanned-only entry: report drift, take no destructive
				// action. Promotion into the file is an explicit request.
				res.MissingFromFile = append(res.MissingFromFile, strings.ToUpper(method)+" "+path)
				continue
			}
			s.updateDiffMarker(fileOp, scannedItem.GetMap(method), file, scanned, strings.ToUpper(method)+" "+path, res)
		}
	}
	return res
}

// ReconcileWebSocket compares the scanned AsyncAPI spec against the file
// spec. Beyond drift reporting and diff markers, channels and messages
// referenced by scanned operations that are present in the file are pulled
// across transitively when missing, so the file spec stays self-contained.
func (s *Syncer) ReconcileWebSocket(file, scanned *document.Map) *Result {
	res := &Result{}
	fileOps := document.Operations(file)
	scannedOps := document.Operations(scanned)
	if scannedOps == nil {
		return res
	}

	for _, name := range scannedOps.Keys() {
		scannedOp := scannedOps.GetMap(name)
		if scannedOp == nil {
			continue
		}
		fileOp := fileOps.GetMap(name)
		if fileOp == nil {
			res.MissingFromFile = append(res.MissingFromFile, name)
			continue
		}
		s.pullChannel(fileOp, file, scanned, res)
		s.updateDiffMarker(fileOp, scannedOp, file, scanned, name, res)
	}
	return res
}

// updateDiffMarker diffs the shape of a completed operation against the
// scanned side and records the outcome in x-ouroboros-diff. Mock operations
// are left alone: no implementation is expected yet.
func (s *Syncer) updateDiffMarker(fileOp, scannedOp, file, scanned *document.Map, label string, res *Result) {
	if fileOp.GetString(document.ExtProgress) != document.ProgressCompleted {
		return
	}

	marker := document.DiffNone
	if scannedOp == nil {
		marker = document.DiffShape
	} else if !s.shapesMatch(fileOp, file, scanned) {
		marker = document.DiffShape
	}

	if fileOp.GetString(document.ExtDiff) != marker {
		fileOp.Set(document.ExtDiff, marker)
		res.DiffUpdated = append(res.DiffUpdated, label)
		s.log.Info("diff marker updated", "operation", label, "diff", marker)
	}
}

// shapesMatch flattens every schema referenced by the file operation on both
// sides and compares the fingerprints. Scanned specs may use fully-qualified
// names where the file uses simple names; lookups fall back accordingly.
func (s *Syncer) shapesMatch(fileOp, file, scanned *document.Map) bool {
	fileSchemas := document.Schemas(file)
	scannedSchemas := document.Schemas(scanned)

	names := referencedSchemaNames(fileOp)
	for _, name := range names {
		fileCounts := s.diff.Flatten(name, fileSchemas)

		scannedName := name
		if scannedSchemas.GetMap(scannedName) == nil {
			scannedName = findScannedName(scannedSchemas, name)
			if scannedName == "" {
				return false
			}
		}
		scannedCounts := s.diff.Flatten(scannedName, scannedSchemas)
		if !fileCounts.Equal(scannedCounts) {
			return false
		}
	}
	return true
}

// findScannedName finds a scanned schema whose simple name matches name.
func findScannedName(scannedSchemas *document.Map, name string) string {
	for _, candidate := range scannedSchemas.Keys() {
		if document.SimpleName(candidate) == name {
			return candidate
		}
	}
	return ""
}

// referencedSchemaNames collects the schema names referenced anywhere in an
// operation subtree, in first-seen order.
func referencedSchemaNames(op *document.Map) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case *document.Map:
			for _, key := range t.Keys() {
				val, _ := t.Get(key)
				if key == "$ref" {
					if ref, ok := val.(string); ok {
						if name, local := document.RefName(ref); local && !seen[name] {
							seen[name] = true
							names = append(names, name)
						}
					}
					continue
				}
				walk(val)
			}
		case []any:
			for _, e := range t {
				walk(e)
			}
		}
	}
	walk(op)
	return names
}

// PromoteREST copies a scanned-only operation into the file spec, together
// with every schema it references transitively. It fails if the operation is
// absent from the scanned spec or already present in the file spec.
func (s *Syncer) PromoteREST(file, scanned *document.Map, method, path string) (*Result, error) {
	method = strings.ToLower(method)
	label := strings.ToUpper(method) + " " + path

	scannedOp := operationAt(document.Paths(scanned), path, method)
	if scannedOp == nil {
		return nil, ouroerrors.NotFound("operation", label)
	}
	if operationAt(document.Paths(file), path, method) != nil {
		return nil, ouroerrors.Duplicate("operation", label)
	}

	res := &Result{}
	item := document.EnsurePath(document.EnsurePaths(file), path)
	item.Set(method, scannedOp.Clone())
	s.pullSchemas(referencedSchemaNames(scannedOp), file, scanned, res)
	s.log.Info("promoted scanned operation into file spec", "operation", label)
	return res, nil
}

// PromoteWebSocket copies a scanned-only AsyncAPI operation into the file
// spec, together with its channel, messages and schemas.
func (s *Syncer) PromoteWebSocket(file, scanned *document.Map, name string) (*Result, error) {
	scannedOp := document.Operations(scanned).GetMap(name)
	if scannedOp == nil {
		return nil, ouroerrors.NotFound("operation", name)
	}
	if document.Operations(file).GetMap(name) != nil {
		return nil, ouroerrors.Duplicate("operation", name)
	}

	res := &Result{}
	copied := scannedOp.Clone()
	document.EnsureOperations(file).Set(name, copied)
	s.pullChannel(copied, file, scanned, res)
	s.pullSchemas(referencedSchemaNames(copied), file, scanned, res)
	s.log.Info("promoted scanned operation into file spec", "operation", name)
	return res, nil
}

// pullChannel copies the channel referenced by op from the scanned spec when
// it is missing from the file spec, transitively pulling the channel's
// messages and their payload/header schemas.
func (s *Syncer) pullChannel(op, file, scanned *document.Map, res *Result) {
	channelRef := op.GetMap("channel").GetString("$ref")
	name, ok := strings.CutPrefix(channelRef, channelRefPrefix)
	if !ok || name == "" {
		return
	}
	fileChannels := document.EnsureChannels(file)
	if fileChannels.GetMap(name) != nil {
		return
	}
	scannedChannel := document.Channels(scanned).GetMap(name)
	if scannedChannel == nil {
		s.log.Warn("scanned operation references unknown channel", "channel", name)
		return
	}

	copied := scannedChannel.Clone()
	fileChannels.Set(name, copied)
	res.PulledChannels = append(res.PulledChannels, name)
	s.log.Info("pulled channel from scanned spec", "channel", name)

	s.pullMessages(copied, file, scanned, res)
}

// pullMessages copies component messages referenced by a channel, then the
// schemas those messages reference.
func (s *Syncer) pullMessages(channel, file, scanned *document.Map, res *Result) {
	messages := channel.GetMap("messages")
	if messages == nil {
		return
	}
	fileMessages := document.EnsureMessages(file)
	scannedMessages := document.Messages(scanned)

	for _, key := range messages.Keys() {
		ref := messages.GetMap(key).GetString("$ref")
		name, ok := strings.CutPrefix(ref, messageRefPrefix)
		if !ok || name == "" {
			continue
		}
		if fileMessages.GetMap(name) != nil {
			continue
		}
		scannedMsg := scannedMessages.GetMap(name)
		if scannedMsg == nil {
			s.log.Warn("channel references unknown message", "message", name)
			continue
		}
		copied := scannedMsg.Clone()
		fileMessages.Set(name, copied)
		res.PulledMessages = append(res.PulledMessages, name)
		s.log.Info("pulled message from scanned spec", "message", name)

		s.pullSchemas(referencedSchemaNames(copied), file, scanned, res)
	}
}

// pullSchemas copies the named schemas from the scanned spec into the file
// spec when missing, following references inside the copied schemas until the
// file spec is closed over the reference graph.
func (s *Syncer) pullSchemas(names []string, file, scanned *document.Map, res *Result) {
	fileSchemas := document.EnsureSchemas(file)
	scannedSchemas := document.Schemas(scanned)

	queue := append([]string(nil), names...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if fileSchemas.GetMap(name) != nil {
			continue
		}
		scannedSchema := scannedSchemas.GetMap(name)
		if scannedSchema == nil {
			s.log.Warn("referenced schema missing from scanned spec", "schema", name)
			continue
		}
		copied := scannedSchema.Clone()
		fileSchemas.Set(name, copied)
		res.PulledSchemas = append(res.PulledSchemas, name)
		s.log.Debug("pulled schema from scanned spec", "schema", name)
		queue = append(queue, referencedSchemaNames(copied)...)
	}
}

// operationAt returns the operation map at paths[path][method], or nil.
func operationAt(paths *document.Map, path, method string) *document.Map {
	item := paths.GetMap(path)
	if item == nil {
		return nil
	}
	return item.GetMap(method)
}

// Describe renders a short human-readable summary of a reconcile result.
func (r *Result) Describe() string {
	return fmt.Sprintf("drift=%d diff-updated=%d pulled(channels=%d messages=%d schemas=%d)",
		len(r.MissingFromFile), len(r.DiffUpdated),
		len(r.PulledChannels), len(r.PulledMessages), len(r.PulledSchemas))
}
