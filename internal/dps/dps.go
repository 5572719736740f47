// Package dps implements the Azure Device Provisioning Service MQTT5
// topic codec and registration/operation-status JSON payload parsing,
// grounded in az_iot_provisioning_client.c.
package dps

import (
	"strconv"
	"strings"

	"github.com/orizon-iot/iotcore/internal/azjson"
	"github.com/orizon-iot/iotcore/internal/azresult"
)

const (
	subscribeTopicFilter = "$dps/registrations/res/#"
	registerPublishTopic = "$dps/registrations/PUT/iotdps-register/?$rid=1"
	queryPublishPrefix   = "$dps/registrations/GET/iotdps-get-operationstatus/?$rid=1&operationId="
)

// SubscribeTopicFilter returns "$dps/registrations/res/#".
func SubscribeTopicFilter() string { return subscribeTopicFilter }

// RegisterPublishTopic returns "$dps/registrations/PUT/iotdps-register/?$rid=1".
func RegisterPublishTopic() string { return registerPublishTopic }

// QueryPublishTopic returns
// "$dps/registrations/GET/iotdps-get-operationstatus/?$rid=1&operationId={operationID}".
func QueryPublishTopic(operationID string) string {
	return queryPublishPrefix + operationID
}

// OperationStatus is the DPS registration-state machine's status enum,
// matching az_iot_provisioning_client.c's string comparisons verbatim.
type OperationStatus int

const (
	OperationStatusUnknown OperationStatus = iota
	OperationStatusAssigning
	OperationStatusAssigned
	OperationStatusFailed
	OperationStatusUnassigned
	OperationStatusDisabled
)

func (s OperationStatus) String() string {
	switch s {
	case OperationStatusAssigning:
		return "assigning"
	case OperationStatusAssigned:
		return "assigned"
	case OperationStatusFailed:
		return "failed"
	case OperationStatusUnassigned:
		return "unassigned"
	case OperationStatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

func parseOperationStatus(s []byte) OperationStatus {
	switch string(s) {
	case "assigning":
		return OperationStatusAssigning
	case "assigned":
		return OperationStatusAssigned
	case "failed":
		return OperationStatusFailed
	case "unassigned":
		return OperationStatusUnassigned
	case "disabled":
		return OperationStatusDisabled
	default:
		return OperationStatusUnknown
	}
}

// RegistrationState carries the "registrationState" sub-object of a DPS
// registration operation response.
type RegistrationState struct {
	AssignedHub            string
	DeviceID                string
	ErrorMessage            string
	LastUpdatedDateTimeUtc string
}

// RegisterOrQueryResponse is the parsed result of a DPS register/query
// response payload.
type RegisterOrQueryResponse struct {
	OperationID string
	Status      OperationStatus
	State       RegistrationState

	ErrorCode      int32
	ErrorHTTPClass int32 // ErrorCode / 1000, a coarse HTTP-like status
	TrackingID     string
	Message        string
	TimestampUtc   string
}

// ParseResponsePayload parses a DPS register/query response body into a
// RegisterOrQueryResponse, using the streaming JSON reader directly (no
// intermediate tree).
func ParseResponsePayload(payload []byte) (RegisterOrQueryResponse, azresult.Result) {
	var out RegisterOrQueryResponse

	r := azjson.NewReader(payload)
	if res := r.Next(); res.Failed() {
		return out, res
	}
	if r.Current().Kind != azjson.KindBeginObject {
		return out, azresult.InvalidState("expected object at DPS response root")
	}

	for {
		if res := r.Next(); res.Failed() {
			return out, res
		}
		if r.Current().Kind == azjson.KindEndObject {
			break
		}
		if r.Current().Kind != azjson.KindPropertyName {
			return out, azresult.InvalidState("expected property name")
		}
		name := string(r.Current().Slice)
		if res := r.Next(); res.Failed() {
			return out, res
		}

		switch name {
		case "operationId":
			out.OperationID = string(r.Current().Slice)
		case "status":
			out.Status = parseOperationStatus(r.Current().Slice)
		case "registrationState":
			if res := parseRegistrationState(r, &out.State); res.Failed() {
				return out, res
			}
		case "errorCode":
			v, err := strconv.ParseInt(string(r.Current().Slice), 10, 32)
			if err != nil {
				return out, azresult.InvalidState("malformed errorCode")
			}
			out.ErrorCode = int32(v)
			out.ErrorHTTPClass = int32(v) / 1000
		case "trackingId":
			out.TrackingID = string(r.Current().Slice)
		case "message":
			out.Message = string(r.Current().Slice)
		case "timestampUtc":
			out.TimestampUtc = string(r.Current().Slice)
		default:
			if res := r.SkipChildren(); res.Failed() {
				return out, res
			}
		}
	}

	return out, azresult.Ok()
}

func parseRegistrationState(r *azjson.Reader, out *RegistrationState) azresult.Result {
	if r.Current().Kind != azjson.KindBeginObject {
		return azresult.InvalidState("expected registrationState object")
	}
	for {
		if res := r.Next(); res.Failed() {
			return res
		}
		if r.Current().Kind == azjson.KindEndObject {
			return azresult.Ok()
		}
		if r.Current().Kind != azjson.KindPropertyName {
			return azresult.InvalidState("expected property name")
		}
		name := string(r.Current().Slice)
		if res := r.Next(); res.Failed() {
			return res
		}
		switch name {
		case "assignedHub":
			out.AssignedHub = string(r.Current().Slice)
		case "deviceId":
			out.DeviceID = string(r.Current().Slice)
		case "errorMessage":
			out.ErrorMessage = string(r.Current().Slice)
		case "lastUpdatedDateTimeUtc":
			out.LastUpdatedDateTimeUtc = string(r.Current().Slice)
		default:
			if res := r.SkipChildren(); res.Failed() {
				return res
			}
		}
	}
}

// ParseStatusFromTopic extracts the numeric status segment and an
// optional "retry-after=N" query parameter from a DPS response topic of
// the form "$dps/registrations/res/{status}/?$rid=1&retry-after=N".
func ParseStatusFromTopic(topic string) (status uint16, retryAfterSeconds int, res azresult.Result) {
	const prefix = "$dps/registrations/res/"
	if !strings.HasPrefix(topic, prefix) {
		return 0, 0, azresult.TopicNoMatch("not a DPS response topic")
	}
	rest := topic[len(prefix):]
	slash := strings.IndexByte(rest, '/')
	statusStr := rest
	query := ""
	if slash >= 0 {
		statusStr = rest[:slash]
		query = rest[slash+1:]
	}
	s, err := strconv.ParseUint(statusStr, 10, 16)
	if err != nil {
		return 0, 0, azresult.InvalidArg("malformed status segment")
	}
	query = strings.TrimPrefix(query, "?")
	for _, kv := range strings.Split(query, "&") {
		k, v, found := strings.Cut(kv, "=")
		if found && k == "retry-after" {
			if n, err := strconv.Atoi(v); err == nil {
				retryAfterSeconds = n
			}
		}
	}
	return uint16(s), retryAfterSeconds, azresult.Ok()
}
