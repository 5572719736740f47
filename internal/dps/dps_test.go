package dps

import "testing"

func TestTopics(t *testing.T) {
	if got := SubscribeTopicFilter(); got != "$dps/registrations/res/#" {
		t.Fatalf("got %q", got)
	}
	if got := RegisterPublishTopic(); got != "$dps/registrations/PUT/iotdps-register/?$rid=1" {
		t.Fatalf("got %q", got)
	}
	want := "$dps/registrations/GET/iotdps-get-operationstatus/?$rid=1&operationId=abc123"
	if got := QueryPublishTopic("abc123"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseResponsePayloadAssigned(t *testing.T) {
	payload := []byte(`{
		"operationId": "4.abc",
		"status": "assigned",
		"registrationState": {
			"assignedHub": "myhub.azure-devices.net",
			"deviceId": "thermostat1",
			"errorMessage": "",
			"lastUpdatedDateTimeUtc": "2026-07-31T00:00:00Z"
		}
	}`)
	out, res := ParseResponsePayload(payload)
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if out.Status != OperationStatusAssigned {
		t.Fatalf("got status %v", out.Status)
	}
	if out.State.AssignedHub != "myhub.azure-devices.net" || out.State.DeviceID != "thermostat1" {
		t.Fatalf("got state %+v", out.State)
	}
}

func TestParseResponsePayloadFailure(t *testing.T) {
	payload := []byte(`{
		"operationId": "4.abc",
		"status": "failed",
		"registrationState": {
			"errorMessage": "device disabled"
		},
		"errorCode": 401003,
		"trackingId": "track-1",
		"message": "forbidden",
		"timestampUtc": "2026-07-31T00:00:00Z"
	}`)
	out, res := ParseResponsePayload(payload)
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if out.Status != OperationStatusFailed {
		t.Fatalf("got status %v", out.Status)
	}
	if out.ErrorCode != 401003 || out.ErrorHTTPClass != 401 {
		t.Fatalf("got errorCode=%d class=%d", out.ErrorCode, out.ErrorHTTPClass)
	}
	if out.TrackingID != "track-1" {
		t.Fatalf("got trackingId %q", out.TrackingID)
	}
}

func TestParseStatusFromTopic(t *testing.T) {
	status, retry, res := ParseStatusFromTopic("$dps/registrations/res/202/?$rid=1&retry-after=3")
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if status != 202 || retry != 3 {
		t.Fatalf("got status=%d retry=%d", status, retry)
	}
}

func TestParseStatusFromTopicNoRetryAfter(t *testing.T) {
	status, retry, res := ParseStatusFromTopic("$dps/registrations/res/200/?$rid=1")
	if res.Failed() {
		t.Fatalf("parse: %v", res)
	}
	if status != 200 || retry != 0 {
		t.Fatalf("got status=%d retry=%d", status, retry)
	}
}
