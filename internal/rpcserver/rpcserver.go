// Package rpcserver implements the RPC Server HFSM from spec §4.7: a
// command server that subscribes to a topic, waits for correlated
// request publishes, dispatches them to an application callback, and
// publishes correlated responses — with re-subscribe and command
// timeouts handled by the same two-state HFSM the base spec describes,
// ported from az_mqtt5_rpc_server_hfsm.c onto the internal/hfsm
// framework.
package rpcserver

import (
	"fmt"
	"strconv"
	"time"

	"github.com/orizon-iot/iotcore/internal/azjson"
	"github.com/orizon-iot/iotcore/internal/hfsm"
	"github.com/orizon-iot/iotcore/internal/mqtttopic"
	"github.com/orizon-iot/iotcore/internal/platform"
)

// Properties is the subset of MQTT5 publish properties this package
// reads and writes: ResponseTopic/CorrelationData on an incoming
// request, ContentType/UserProperties/CorrelationData on an outgoing
// response.
type Properties struct {
	ResponseTopic   string
	CorrelationData []byte
	ContentType     string
	UserProperties  map[string]string
}

// PendingCommand is the single in-flight request a Server tracks at any
// time, per spec §3's invariant "at most one pending command exists per
// server instance at a time."
type PendingCommand struct {
	CorrelationID []byte
	ResponseTopic string
	Payload       []byte
}

// SubReqData is the Data payload of an EventSubReq the Server posts to
// request a subscription from the (external) transport adapter.
type SubReqData struct {
	Filter   string
	QoS      byte
	PacketID uint16
}

// SubAckData is the Data payload of an EventSubAckRsp the transport
// adapter dispatches back in, correlated by PacketID.
type SubAckData struct {
	PacketID uint16
}

// PubRecvData is the Data payload of an EventPubRecvInd delivered by the
// transport for every publish received on any subscription.
type PubRecvData struct {
	Topic   string
	Payload []byte
	Props   Properties
}

// PubReqData is the Data payload of an EventPubReq the Server posts to
// request a publish from the transport adapter.
type PubReqData struct {
	Topic   string
	QoS     byte
	Payload []byte
	Props   Properties
}

// ExecutionFinishData is the Data payload of the EventExecutionFinish
// event the application raises once it has finished processing the
// pending command.
type ExecutionFinishData struct {
	Status  Status
	Payload []byte
	// Message is used to build a minimal {"message":...} JSON payload
	// when Status is a failure and Payload is empty.
	Message string
}

// Options configures a Server.
type Options struct {
	// TopicFormat is the mqtttopic template the server's subscription and
	// the peer's publishes are built/matched against, e.g.
	// "vehicles/{modelId}/commands/{executorId}/{commandName}".
	TopicFormat string
	// ModelID, ExecutorID, CommandName fill the template's tokens.
	ModelID, ExecutorID, CommandName string

	SubscribeQoS byte // default 1
	ResponseQoS  byte // default 1

	ReSubscribeTimeout time.Duration // default 10s
	CommandTimeout     time.Duration // default 30s

	Platform platform.Platform

	// OnExecuteCommand is invoked synchronously with the newly-pending
	// command when a matching request arrives. It may return before the
	// command finishes executing; the application signals completion by
	// calling Server.ExecutionFinish.
	OnExecuteCommand func(cmd PendingCommand)

	// OnError is invoked for transport/protocol errors the HFSM's root
	// state forwards (spec §4.7 root: "handles Error by forwarding
	// inbound"). May be nil.
	OnError func(err error)
}

func (o *Options) applyDefaults() {
	if o.SubscribeQoS == 0 {
		o.SubscribeQoS = 1
	}
	if o.ResponseQoS == 0 {
		o.ResponseQoS = 1
	}
	if o.ReSubscribeTimeout == 0 {
		o.ReSubscribeTimeout = 10 * time.Second
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = 30 * time.Second
	}
}

// Server drives one command-server HFSM instance: subscribing ->
// waiting, with re-subscribe and command timeouts.
type Server struct {
	opts    Options
	machine *hfsm.Machine

	subscribeTopic    string
	subscribePacketID uint16

	resubscribeTimer platform.Timer
	commandTimer     platform.Timer

	pending    *PendingCommand
	subscribed bool

	root        hfsm.State
	subscribing hfsm.State
	waiting     hfsm.State
}

// New builds a Server in its initial "subscribing" state. Call Register
// to emit the initial subscribe request.
func New(opts Options) (*Server, error) {
	opts.applyDefaults()
	if opts.Platform == nil {
		return nil, fmt.Errorf("rpcserver: Options.Platform is required")
	}
	if res := mqtttopic.ValidateFormat(opts.TopicFormat); res.Failed() {
		return nil, res
	}

	topic, res := mqtttopic.Format(opts.TopicFormat, map[string]string{
		mqtttopic.TokenModelID:     opts.ModelID,
		mqtttopic.TokenExecutorID:  opts.ExecutorID,
		mqtttopic.TokenCommandName: opts.CommandName,
	})
	if res.Failed() {
		return nil, res
	}

	srv := &Server{opts: opts, subscribeTopic: topic}
	srv.buildStates()

	srv.machine = hfsm.NewMachine(srv.parentOf)
	srv.machine.Enter(srv.subscribing)
	return srv, nil
}

// SubscribeTopic returns the concrete topic this server subscribes to.
func (s *Server) SubscribeTopic() string { return s.subscribeTopic }

// Outbound drains events the Server has queued for the transport adapter
// to actually perform (EventSubReq, EventPubReq).
func (s *Server) Outbound() []hfsm.Event { return s.machine.DrainOutbound() }

// Register emits the server's initial subscribe request, per spec §4.7:
// "register(server) emits a SubReq with the server's subscription topic
// ... and QoS, storing the pending packet id for later SubAckRsp
// correlation." Spec §5 guarantees subscribe is always issued before any
// publish; callers must call Register before feeding any EventPubRecvInd.
func (s *Server) Register() {
	s.emitSubReq()
}

func (s *Server) emitSubReq() {
	s.subscribePacketID = uint16(s.opts.Platform.Rand())
	s.machine.Post(hfsm.Event{Type: hfsm.EventSubReq, Data: SubReqData{
		Filter:   s.subscribeTopic,
		QoS:      s.opts.SubscribeQoS,
		PacketID: s.subscribePacketID,
	}})
}

// Dispatch delivers e to the underlying HFSM. Use the EventSubAckRsp,
// EventPubRecvInd, and EventExecutionFinish event types to drive the
// server; EventTimeout for timer callbacks.
func (s *Server) Dispatch(e hfsm.Event) hfsm.Result {
	return s.machine.Dispatch(e)
}

// ExecutionFinish is a convenience wrapper around
// Dispatch(hfsm.Event{Type: hfsm.EventExecutionFinish, ...}).
func (s *Server) ExecutionFinish(data ExecutionFinishData) hfsm.Result {
	return s.Dispatch(hfsm.Event{Type: hfsm.EventExecutionFinish, Data: data})
}

func (s *Server) buildStates() {
	s.root = hfsm.State{Name: "root", Handle: s.handleRoot}
	s.subscribing = hfsm.State{Name: "subscribing", Handle: s.handleSubscribing}
	s.waiting = hfsm.State{Name: "waiting", Handle: s.handleWaiting}
}

func (s *Server) parentOf(st hfsm.State) (hfsm.State, bool) {
	switch st.Name {
	case "subscribing", "waiting":
		return s.root, true
	default:
		return hfsm.State{}, false
	}
}

func (s *Server) handleRoot(m *hfsm.Machine, e hfsm.Event) hfsm.Result {
	switch e.Type {
	case hfsm.EventError:
		if s.opts.OnError != nil {
			if err, ok := e.Data.(error); ok {
				s.opts.OnError(err)
			}
		}
		return hfsm.Handled
	case hfsm.EventExit:
		s.opts.Platform.CriticalError(fmt.Errorf("rpcserver: root received Exit"))
		return hfsm.Handled
	case hfsm.EventConnectRsp:
		// Connection lifecycle is the transport adapter's concern; the
		// server only cares about subscribe/publish correlation.
		return hfsm.Handled
	default:
		return hfsm.Unhandled
	}
}

func (s *Server) handleSubscribing(m *hfsm.Machine, e hfsm.Event) hfsm.Result {
	switch e.Type {
	case hfsm.EventEntry:
		s.resubscribeTimer = s.opts.Platform.NewTimer(s.opts.ReSubscribeTimeout, func() {
			s.machine.Dispatch(hfsm.Event{Type: hfsm.EventTimeout})
		})
		return hfsm.Handled

	case hfsm.EventExit:
		if s.resubscribeTimer != nil {
			s.resubscribeTimer.Stop()
			s.resubscribeTimer = nil
		}
		return hfsm.Handled

	case hfsm.EventSubAckRsp:
		if ack, ok := e.Data.(SubAckData); ok && ack.PacketID == s.subscribePacketID {
			s.subscribed = true
			m.TransitionTo(s.waiting)
			return hfsm.Handled
		}
		return hfsm.Handled

	case hfsm.EventPubRecvInd:
		// The broker may deliver a publish before its SubAck reaches us;
		// treat a matching publish as proof the subscription is live.
		if data, ok := e.Data.(PubRecvData); ok && mqtttopic.MatchesFilter(s.subscribeTopic, data.Topic) {
			s.subscribed = true
			m.TransitionTo(s.waiting)
			s.dispatchRequest(data)
			return hfsm.Handled
		}
		return hfsm.Unhandled

	case hfsm.EventTimeout:
		s.emitSubReq()
		return hfsm.Handled

	default:
		return hfsm.Unhandled
	}
}

func (s *Server) handleWaiting(m *hfsm.Machine, e hfsm.Event) hfsm.Result {
	switch e.Type {
	case hfsm.EventPubRecvInd:
		data, ok := e.Data.(PubRecvData)
		if !ok || !mqtttopic.MatchesFilter(s.subscribeTopic, data.Topic) {
			return hfsm.Unhandled
		}
		s.dispatchRequest(data)
		return hfsm.Handled

	case hfsm.EventExecutionFinish:
		data, ok := e.Data.(ExecutionFinishData)
		if !ok || s.pending == nil {
			return hfsm.Handled
		}
		s.publishResponse(*s.pending, data.Status, finishPayload(data))
		s.clearPending()
		return hfsm.Handled

	case hfsm.EventTimeout:
		if s.pending == nil {
			return hfsm.Unhandled
		}
		s.publishResponse(*s.pending, StatusServerError, timeoutPayload())
		s.clearPending()
		return hfsm.Handled

	default:
		return hfsm.Unhandled
	}
}

// dispatchRequest implements spec §4.7's request-dispatch steps: read
// ResponseTopic/CorrelationData, store the pending command, and invoke
// the application callback. A second request arriving while one is
// already pending is rejected immediately with an error response built
// from the *new* request's own correlation data — the spec's chosen
// resolution to the base spec's "reject vs queue" open question.
func (s *Server) dispatchRequest(data PubRecvData) {
	if data.Props.ResponseTopic == "" || len(data.Props.CorrelationData) == 0 {
		if s.opts.OnError != nil {
			s.opts.OnError(fmt.Errorf("rpcserver: request missing ResponseTopic/CorrelationData"))
		}
		return
	}

	if s.pending != nil {
		busy := PendingCommand{
			CorrelationID: data.Props.CorrelationData,
			ResponseTopic: data.Props.ResponseTopic,
		}
		s.publishResponse(busy, StatusBadRequest, errorPayload("Command Server busy, rejecting request"))
		return
	}

	pending := &PendingCommand{
		CorrelationID: data.Props.CorrelationData,
		ResponseTopic: data.Props.ResponseTopic,
		Payload:       data.Payload,
	}
	s.pending = pending

	s.commandTimer = s.opts.Platform.NewTimer(s.opts.CommandTimeout, func() {
		s.machine.Dispatch(hfsm.Event{Type: hfsm.EventTimeout})
	})

	if s.opts.OnExecuteCommand != nil {
		s.opts.OnExecuteCommand(*pending)
	}
}

func (s *Server) clearPending() {
	s.pending = nil
	if s.commandTimer != nil {
		s.commandTimer.Stop()
		s.commandTimer = nil
	}
}

// publishResponse implements spec §4.7's response construction: QoS
// equal to the configured response QoS, ContentType application/json, a
// "status" user property carrying the decimal status code, and
// CorrelationData echoed from the request.
func (s *Server) publishResponse(cmd PendingCommand, status Status, payload []byte) {
	s.machine.Post(hfsm.Event{Type: hfsm.EventPubReq, Data: PubReqData{
		Topic:   cmd.ResponseTopic,
		QoS:     s.opts.ResponseQoS,
		Payload: payload,
		Props: Properties{
			ContentType:     "application/json",
			CorrelationData: cmd.CorrelationID,
			UserProperties:  map[string]string{"status": strconv.Itoa(int(status))},
		},
	}})
}

func finishPayload(data ExecutionFinishData) []byte {
	if len(data.Payload) > 0 {
		return data.Payload
	}
	if StatusFailed(data.Status) {
		msg := data.Message
		if msg == "" {
			msg = "Command execution failed"
		}
		return errorPayload(msg)
	}
	return []byte("{}")
}

func timeoutPayload() []byte {
	return errorPayload("Command Server timeout")
}

func errorPayload(message string) []byte {
	// azjson.Writer never grows its buffer; size the destination
	// generously since the message length is already known.
	dst := make([]byte, len(message)+32)
	w := azjson.NewWriter(dst)
	_ = w.BeginObject()
	_ = w.PropertyName([]byte("message"))
	_ = w.String([]byte(message))
	_ = w.EndObject()
	return append([]byte(nil), w.GetWritten()...)
}
