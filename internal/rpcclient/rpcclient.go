// Package rpcclient implements the invoker (caller) side of the MQTT5
// RPC command protocol: the topic codec for the request and response
// halves of a command invocation. It supplements the base spec (which
// only specifies the server side, §4.7) with the half needed to
// originate requests, grounded in az_mqtt5_rpc_client_codec.c /
// az_mqtt5_rpc_client.c from original_source. It does not implement the
// invoker-side HFSM (subscribe -> await correlated response -> timeout)
// — only the codec — since the base spec's end-to-end scenario only
// exercises the server side; see DESIGN.md.
package rpcclient

import (
	"github.com/google/uuid"

	"github.com/orizon-iot/iotcore/internal/azresult"
	"github.com/orizon-iot/iotcore/internal/mqtttopic"
)

// Client builds the invoker-side topics for a single (modelId,
// invokerClientId) pair: the request publish topic, the response
// subscribe filter, and an optional targeted response topic.
type Client struct {
	InvokerClientID string
	ModelID         string
}

// requestTemplate mirrors the server's subscribe-topic shape, with the
// executor id left open for the caller to fill per call (broadcast vs
// targeted). responseTemplate adds an invoker-id level after "commands"
// and a trailing "response" level, so multiple invokers don't cross
// streams.
const (
	requestTemplate  = "vehicles/{modelId}/commands/{executorId}/{commandName}"
	responseTemplate = "vehicles/{modelId}/commands/{invokerClientId}/{executorId}/{commandName}/response"
)

// GetPublishTopic builds the request-publish topic for commandName
// addressed to executorID, or to mqtttopic.AnyExecutorID to broadcast to
// every executor subscribed under the model.
func (c Client) GetPublishTopic(executorID, commandName string) (string, azresult.Result) {
	return mqtttopic.Format(requestTemplate, map[string]string{
		mqtttopic.TokenModelID:     c.ModelID,
		mqtttopic.TokenExecutorID:  executorID,
		mqtttopic.TokenCommandName: commandName,
	})
}

// GetResponseTopic builds the concrete response topic this invoker
// expects executorID to publish commandName's result on.
func (c Client) GetResponseTopic(executorID, commandName string) (string, azresult.Result) {
	return mqtttopic.Format(responseTemplate, map[string]string{
		mqtttopic.TokenModelID:         c.ModelID,
		mqtttopic.TokenInvokerClientID: c.InvokerClientID,
		mqtttopic.TokenExecutorID:      executorID,
		mqtttopic.TokenCommandName:     commandName,
	})
}

// GetResponseSubscribeTopic builds the filter this invoker subscribes to
// in order to receive commandName's response from any executor it has
// sent a request to. Format substitutes values verbatim into a single
// topic level, so passing the literal MQTT '+' wildcard as the executor
// id produces a valid subscribe filter directly.
func (c Client) GetResponseSubscribeTopic(commandName string) (string, azresult.Result) {
	return c.GetResponseTopic("+", commandName)
}

// NewCorrelationData generates a fresh 16-byte correlation id for an
// outbound request, using a random (v4) UUID. The MQTT5 CorrelationData
// property is an opaque binary blob; the server only ever echoes back
// whatever it is sent, so UUIDv4 bytes are as good a choice as any and
// match google/uuid's use elsewhere in this pack.
func NewCorrelationData() []byte {
	id := uuid.New()
	return id[:]
}
