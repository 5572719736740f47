package iothub

import "testing"

func TestC2DSubscribeTopicFilter(t *testing.T) {
	c := Client{DeviceID: "thermostat1"}
	got := c.C2DSubscribeTopicFilter()
	want := "devices/thermostat1/messages/devicebound/#"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestC2DReceivedTopicParse(t *testing.T) {
	topic := "devices/thermostat1/messages/devicebound/%24.to=%2Fdevices%2Fthermostat1"
	req, res := C2DReceivedTopicParse(topic)
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if req.Properties != "%24.to=%2Fdevices%2Fthermostat1" {
		t.Fatalf("got %q", req.Properties)
	}
}

func TestMethodsSubscribeTopicFilter(t *testing.T) {
	if got := MethodsSubscribeTopicFilter(); got != "$iothub/methods/POST/#" {
		t.Fatalf("got %q", got)
	}
}

func TestMethodsParseReceivedTopic(t *testing.T) {
	topic := "$iothub/methods/POST/reboot/?$rid=42"
	req, res := MethodsParseReceivedTopic(topic)
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if req.Name != "reboot" || req.RequestID != 42 {
		t.Fatalf("got %+v", req)
	}
}

func TestMethodsResponsePublishTopic(t *testing.T) {
	got := MethodsResponsePublishTopic(42, 200)
	want := "$iothub/methods/res/200/?$rid=42"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTwinFilters(t *testing.T) {
	if got := TwinResponseSubscribeTopicFilter(); got != "$iothub/twin/res/#" {
		t.Fatalf("got %q", got)
	}
	if got := TwinDesiredPropertiesSubscribeTopicFilter(); got != "$iothub/twin/PATCH/properties/desired/#" {
		t.Fatalf("got %q", got)
	}
	if got := TwinGetPublishTopic(7); got != "$iothub/twin/GET/?$rid=7" {
		t.Fatalf("got %q", got)
	}
	if got := TwinReportedPropertiesPublishTopic(9); got != "$iothub/twin/PATCH/properties/reported/?$rid=9" {
		t.Fatalf("got %q", got)
	}
}

func TestTwinParseReceivedTopicResponse(t *testing.T) {
	topic := "$iothub/twin/res/204/?$rid=7&$version=3"
	out, res := TwinParseReceivedTopic(topic)
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if out.Status != 204 || out.RequestID != 7 || out.Version != 3 {
		t.Fatalf("got %+v", out)
	}
}

func TestTwinParseReceivedTopicRetryAfter(t *testing.T) {
	topic := "$iothub/twin/res/429/?$rid=1&retry-after=5"
	out, res := TwinParseReceivedTopic(topic)
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if out.RetryAfterS != 5 {
		t.Fatalf("got %+v", out)
	}
}

func TestTwinParseReceivedTopicDesiredPatch(t *testing.T) {
	topic := "$iothub/twin/PATCH/properties/desired/?$version=11"
	out, res := TwinParseReceivedTopic(topic)
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if out.Version != 11 {
		t.Fatalf("got %+v", out)
	}
}

func TestTwinParseReceivedTopicRejectsUnrelated(t *testing.T) {
	_, res := TwinParseReceivedTopic("$iothub/methods/POST/reboot/?$rid=1")
	if !res.Failed() {
		t.Fatalf("expected failure for non-twin topic")
	}
}
