// Package mqtttopic implements the MQTT5 topic format substitution,
// extraction, and wildcard-matching rules shared by the Hub, DPS, PnP,
// and RPC codecs. A "format" is an MQTT topic string in which one or
// more path segments are a brace-delimited token, e.g.
// "vehicles/{modelId}/commands/{executorId}/{commandName}" — each
// token always occupies exactly one whole topic level, never a partial
// segment.
package mqtttopic

import (
	"strings"

	"github.com/orizon-iot/iotcore/internal/azresult"
)

// Recognized token names, matching az_mqtt5_topic_parser_internal.h.
const (
	TokenInvokerClientID = "invokerClientId"
	TokenModelID         = "modelId"
	TokenExecutorID      = "executorId"
	TokenCommandName     = "commandName"
	TokenTelemetryName   = "telemetryName"
	TokenSenderID        = "senderId"

	// TokenServiceGroupID is not a template segment; it is looked up
	// directly in the values map passed to Format and, when present and
	// non-empty, causes a "$share/<value>/" prefix to be prepended to the
	// formatted topic.
	TokenServiceGroupID = "serviceGroupId"
)

var recognizedTokens = map[string]bool{
	TokenInvokerClientID: true,
	TokenModelID:         true,
	TokenExecutorID:      true,
	TokenCommandName:     true,
	TokenTelemetryName:   true,
	TokenSenderID:        true,
}

// AnyExecutorID is the wildcard executor id an invoker substitutes for
// {executorId} when broadcasting a command rather than addressing one
// specific executor.
const AnyExecutorID = "_any_"

// CommandPhase distinguishes the request and response halves of an RPC
// command topic, per az_mqtt5_rpc_client_codec.c's cmd-phase tokens.
type CommandPhase string

const (
	CommandPhaseRequest  CommandPhase = "request"
	CommandPhaseResponse CommandPhase = "response"
)

const sharePrefix = "$share/"

// Format substitutes every "{token}" segment in template with values[token],
// returning the concrete topic string. Every token segment in template
// must have a corresponding entry in values. If values carries a
// TokenServiceGroupID entry, the result is prefixed with
// "$share/<value>/".
func Format(template string, values map[string]string) (string, azresult.Result) {
	segments := strings.Split(template, "/")
	out := make([]string, len(segments))
	for i, seg := range segments {
		name, isToken := tokenName(seg)
		if !isToken {
			out[i] = seg
			continue
		}
		if !recognizedTokens[name] {
			return "", azresult.InvalidArg("unrecognized token " + seg)
		}
		v, ok := values[name]
		if !ok || v == "" {
			return "", azresult.InvalidArg("missing value for token " + seg)
		}
		out[i] = v
	}
	topic := strings.Join(out, "/")
	if group, ok := values[TokenServiceGroupID]; ok && group != "" {
		topic = sharePrefix + group + "/" + topic
	}
	return topic, azresult.Ok()
}

// Extract parses a concrete topic against template, returning the value
// bound to each token segment. Literal segments must match exactly; the
// segment count must match exactly (no wildcard expansion here — use
// MatchesFilter first to confirm shape if the topic is untrusted).
func Extract(template, topic string) (map[string]string, azresult.Result) {
	return ExtractWithExpected(template, topic, nil)
}

// ExtractWithExpected behaves like Extract but additionally requires that
// any token present in expected match the value extracted from topic,
// failing with TopicNoMatch otherwise (e.g. a parser that knows its own
// client id should reject a topic addressed to someone else's).
func ExtractWithExpected(template, topic string, expected map[string]string) (map[string]string, azresult.Result) {
	tSegs := strings.Split(template, "/")
	pSegs := strings.Split(topic, "/")
	if len(tSegs) != len(pSegs) {
		return nil, azresult.TopicNoMatch("segment count mismatch")
	}
	values := make(map[string]string, len(tSegs))
	for i, seg := range tSegs {
		name, isToken := tokenName(seg)
		if !isToken {
			if seg != pSegs[i] {
				return nil, azresult.TopicNoMatch("literal segment mismatch")
			}
			continue
		}
		if pSegs[i] == "" {
			return nil, azresult.TopicNoMatch("empty token segment")
		}
		if want, ok := expected[name]; ok && want != pSegs[i] {
			return nil, azresult.TopicNoMatch("token value mismatch for " + name)
		}
		values[name] = pSegs[i]
	}
	return values, azresult.Ok()
}

func tokenName(segment string) (string, bool) {
	if len(segment) < 2 || segment[0] != '{' || segment[len(segment)-1] != '}' {
		return "", false
	}
	return segment[1 : len(segment)-1], true
}

// ValidateFormat reports whether template is well formed: no empty
// segments, balanced braces, and token segments containing a single
// non-empty identifier.
func ValidateFormat(template string) azresult.Result {
	if template == "" {
		return azresult.InvalidArg("empty topic format")
	}
	for _, seg := range strings.Split(template, "/") {
		if seg == "" {
			return azresult.InvalidArg("empty topic segment")
		}
		openIdx := strings.IndexByte(seg, '{')
		closeIdx := strings.IndexByte(seg, '}')
		if openIdx < 0 && closeIdx < 0 {
			continue
		}
		if openIdx != 0 || closeIdx != len(seg)-1 || closeIdx <= openIdx+1 {
			return azresult.InvalidArg("malformed token segment: " + seg)
		}
		name := seg[1 : len(seg)-1]
		if !recognizedTokens[name] {
			return azresult.InvalidArg("unknown token name: " + name)
		}
	}
	return azresult.Ok()
}

// ValidTopic reports whether topic is a legal concrete (publishable) MQTT
// topic: non-empty and free of the '+'/'#' wildcard characters.
func ValidTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "+#")
}

// MatchesFilter reports whether topic is matched by filter, applying
// standard MQTT '+'/'#' wildcard semantics plus the "$" topics are never
// matched by a leading wildcard" rule, and transparently stripping a
// "$share/<group>/" prefix from filter before matching (shared
// subscriptions never appear in the topics actually published). A
// concrete topic containing '+' or '#' never matches anything.
func MatchesFilter(filter, topic string) bool {
	if !ValidTopic(topic) {
		return false
	}
	if strings.HasPrefix(filter, sharePrefix) {
		rest := filter[len(sharePrefix):]
		slash := strings.IndexByte(rest, '/')
		if slash < 0 {
			return false
		}
		filter = rest[slash+1:]
	}

	if strings.HasPrefix(topic, "$") && !strings.HasPrefix(filter, "$") {
		if filter == "#" || filter == "+" || strings.HasPrefix(filter, "+/") {
			return false
		}
	}

	return matchSegments(strings.Split(filter, "/"), strings.Split(topic, "/"))
}

func matchSegments(filterSegs, topicSegs []string) bool {
	for i, seg := range filterSegs {
		if seg == "#" {
			return i == len(filterSegs)-1
		}
		if i >= len(topicSegs) {
			return false
		}
		if seg == "+" {
			continue
		}
		if seg != topicSegs[i] {
			return false
		}
	}
	return len(filterSegs) == len(topicSegs)
}
