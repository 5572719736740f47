// Package iothub implements the Azure IoT Hub MQTT5 topic codecs: cloud
// to device (C2D) messages, direct methods, and device twin. Unlike
// mqtttopic's generic brace-token templates, these topics are fixed
// protocol strings assembled by direct concatenation, following
// az_iot_hub_client_c2d.c / az_iot_hub_client_methods.c verbatim.
package iothub

import (
	"strconv"
	"strings"

	"github.com/orizon-iot/iotcore/internal/azresult"
)

// Client carries the one piece of per-device state the Hub topic codecs
// need: the device id that appears in the C2D topic.
type Client struct {
	DeviceID string
}

const (
	c2dTopicPrefix = "devices/"
	c2dTopicSuffix = "/messages/devicebound/"

	methodsTopicPrefix           = "$iothub/methods/"
	methodsTopicFilterSuffix     = "POST/"
	methodsResponseTopicResult   = "res/"
	methodsResponseTopicRidParam = "/?$rid="

	twinTopicPrefix           = "$iothub/twin/"
	twinResponseFilterSuffix  = "res/#"
	twinDesiredFilterSuffix   = "PATCH/properties/desired/#"
	twinGetPublishSuffix      = "GET/?$rid="
	twinReportedPublishSuffix = "PATCH/properties/reported/?$rid="
)

// C2DSubscribeTopicFilter returns the filter this device subscribes to for
// cloud-to-device messages: "devices/{deviceId}/messages/devicebound/#".
func (c Client) C2DSubscribeTopicFilter() string {
	return c2dTopicPrefix + c.DeviceID + c2dTopicSuffix + "#"
}

// C2DRequest is the parsed result of a received C2D message topic.
type C2DRequest struct {
	// Properties is the raw, still-URL-encoded property string that
	// followed the fixed topic prefix/suffix (query-string shaped:
	// "key1=value1&key2=value2").
	Properties string
}

// C2DReceivedTopicParse parses a topic received on the C2D subscription
// filter, extracting the trailing application/system property string.
func C2DReceivedTopicParse(topic string) (C2DRequest, azresult.Result) {
	idx := strings.Index(topic, c2dTopicSuffix)
	if idx < 0 {
		return C2DRequest{}, azresult.TopicNoMatch("not a C2D topic")
	}
	return C2DRequest{Properties: topic[idx+len(c2dTopicSuffix):]}, azresult.Ok()
}

// MethodsSubscribeTopicFilter returns "$iothub/methods/POST/#".
func MethodsSubscribeTopicFilter() string {
	return methodsTopicPrefix + methodsTopicFilterSuffix + "#"
}

// MethodRequest is the parsed result of a received direct-method topic.
type MethodRequest struct {
	Name      string
	RequestID uint32
}

// MethodsParseReceivedTopic parses a topic of the form
// "$iothub/methods/POST/{methodName}/?$rid={requestId}".
func MethodsParseReceivedTopic(topic string) (MethodRequest, azresult.Result) {
	idx := strings.Index(topic, methodsTopicPrefix)
	if idx < 0 {
		return MethodRequest{}, azresult.TopicNoMatch("not a methods topic")
	}
	rest := topic[idx+len(methodsTopicPrefix):]

	idx = strings.Index(rest, methodsTopicFilterSuffix)
	if idx < 0 {
		return MethodRequest{}, azresult.TopicNoMatch("missing POST/ segment")
	}
	rest = rest[idx+len(methodsTopicFilterSuffix):]

	idx = strings.Index(rest, methodsResponseTopicRidParam)
	if idx < 0 {
		return MethodRequest{}, azresult.TopicNoMatch("missing $rid param")
	}
	name := rest[:idx]
	ridStr := rest[idx+len(methodsResponseTopicRidParam):]
	rid, err := strconv.ParseUint(ridStr, 10, 32)
	if err != nil {
		return MethodRequest{}, azresult.InvalidArg("malformed request id")
	}
	return MethodRequest{Name: name, RequestID: uint32(rid)}, azresult.Ok()
}

// MethodsResponsePublishTopic returns
// "$iothub/methods/res/{status}/?$rid={requestId}".
func MethodsResponsePublishTopic(requestID uint32, status uint16) string {
	var b strings.Builder
	b.WriteString(methodsTopicPrefix)
	b.WriteString(methodsResponseTopicResult)
	b.WriteString(strconv.FormatUint(uint64(status), 10))
	b.WriteString(methodsResponseTopicRidParam)
	b.WriteString(strconv.FormatUint(uint64(requestID), 10))
	return b.String()
}

// TwinResponseSubscribeTopicFilter returns "$iothub/twin/res/#".
func TwinResponseSubscribeTopicFilter() string {
	return twinTopicPrefix + twinResponseFilterSuffix
}

// TwinDesiredPropertiesSubscribeTopicFilter returns
// "$iothub/twin/PATCH/properties/desired/#".
func TwinDesiredPropertiesSubscribeTopicFilter() string {
	return twinTopicPrefix + twinDesiredFilterSuffix
}

// TwinGetPublishTopic returns "$iothub/twin/GET/?$rid={requestId}".
func TwinGetPublishTopic(requestID uint32) string {
	return twinTopicPrefix + twinGetPublishSuffix + strconv.FormatUint(uint64(requestID), 10)
}

// TwinReportedPropertiesPublishTopic returns
// "$iothub/twin/PATCH/properties/reported/?$rid={requestId}".
func TwinReportedPropertiesPublishTopic(requestID uint32) string {
	return twinTopicPrefix + twinReportedPublishSuffix + strconv.FormatUint(uint64(requestID), 10)
}

// TwinResponse is the parsed result of a topic received on the twin
// response or desired-properties subscription filters.
type TwinResponse struct {
	Status      uint16
	RequestID   uint32 // zero when the topic carries no $rid (desired-property PATCH)
	Version     int64  // -1 when the topic carries no $version
	RetryAfterS int
}

// TwinParseReceivedTopic parses a topic of the form
// "$iothub/twin/res/{status}/?$rid={rid}&$version={version}" or
// "$iothub/twin/PATCH/properties/desired/?$version={version}".
func TwinParseReceivedTopic(topic string) (TwinResponse, azresult.Result) {
	idx := strings.Index(topic, twinTopicPrefix)
	if idx < 0 {
		return TwinResponse{}, azresult.TopicNoMatch("not a twin topic")
	}
	rest := topic[idx+len(twinTopicPrefix):]

	out := TwinResponse{Version: -1}

	if strings.HasPrefix(rest, "res/") {
		rest = rest[len("res/"):]
		slash := strings.IndexByte(rest, '/')
		statusStr := rest
		query := ""
		if slash >= 0 {
			statusStr = rest[:slash]
			query = rest[slash+1:]
		}
		status, err := strconv.ParseUint(statusStr, 10, 16)
		if err != nil {
			return TwinResponse{}, azresult.InvalidArg("malformed twin status")
		}
		out.Status = uint16(status)
		query = strings.TrimPrefix(query, "?")
		parseTwinQuery(query, &out)
		return out, azresult.Ok()
	}

	if strings.HasPrefix(rest, "PATCH/properties/desired") {
		q := strings.IndexByte(rest, '?')
		if q >= 0 {
			parseTwinQuery(rest[q+1:], &out)
		}
		return out, azresult.Ok()
	}

	return TwinResponse{}, azresult.TopicNoMatch("unrecognized twin topic shape")
}

func parseTwinQuery(query string, out *TwinResponse) {
	for _, kv := range strings.Split(query, "&") {
		if kv == "" {
			continue
		}
		k, v, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		switch k {
		case "$rid":
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				out.RequestID = uint32(n)
			}
		case "$version":
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				out.Version = n
			}
		case "retry-after":
			if n, err := strconv.Atoi(v); err == nil {
				out.RetryAfterS = n
			}
		}
	}
}
