package rpcclient

import (
	"strings"
	"testing"

	"github.com/orizon-iot/iotcore/internal/mqtttopic"
)

func TestGetPublishTopic(t *testing.T) {
	c := Client{InvokerClientID: "car-app-1", ModelID: "v1"}
	topic, res := c.GetPublishTopic("car7", "unlock")
	if res.Failed() {
		t.Fatalf("GetPublishTopic failed: %v", res)
	}
	if want := "vehicles/v1/commands/car7/unlock"; topic != want {
		t.Fatalf("topic = %q, want %q", topic, want)
	}
}

func TestGetPublishTopicBroadcast(t *testing.T) {
	c := Client{InvokerClientID: "car-app-1", ModelID: "v1"}
	topic, res := c.GetPublishTopic(mqtttopic.AnyExecutorID, "unlock")
	if res.Failed() {
		t.Fatalf("GetPublishTopic failed: %v", res)
	}
	if !strings.Contains(topic, mqtttopic.AnyExecutorID) {
		t.Fatalf("topic = %q, want it to contain %q", topic, mqtttopic.AnyExecutorID)
	}
}

func TestGetResponseTopicRoundTripsThroughExtract(t *testing.T) {
	c := Client{InvokerClientID: "car-app-1", ModelID: "v1"}
	topic, res := c.GetResponseTopic("car7", "unlock")
	if res.Failed() {
		t.Fatalf("GetResponseTopic failed: %v", res)
	}
	values, res := mqtttopic.Extract(responseTemplate, topic)
	if res.Failed() {
		t.Fatalf("Extract failed: %v", res)
	}
	if values[mqtttopic.TokenExecutorID] != "car7" {
		t.Fatalf("executorId = %q, want car7", values[mqtttopic.TokenExecutorID])
	}
	if values[mqtttopic.TokenInvokerClientID] != "car-app-1" {
		t.Fatalf("invokerClientId = %q, want car-app-1", values[mqtttopic.TokenInvokerClientID])
	}
}

func TestGetResponseSubscribeTopicMatchesConcreteResponse(t *testing.T) {
	c := Client{InvokerClientID: "car-app-1", ModelID: "v1"}
	filter, res := c.GetResponseSubscribeTopic("unlock")
	if res.Failed() {
		t.Fatalf("GetResponseSubscribeTopic failed: %v", res)
	}
	topic, res := c.GetResponseTopic("car7", "unlock")
	if res.Failed() {
		t.Fatalf("GetResponseTopic failed: %v", res)
	}
	if !mqtttopic.MatchesFilter(filter, topic) {
		t.Fatalf("filter %q does not match topic %q", filter, topic)
	}
	other, res := c.GetResponseTopic("car9", "unlock")
	if res.Failed() {
		t.Fatalf("GetResponseTopic failed: %v", res)
	}
	if !mqtttopic.MatchesFilter(filter, other) {
		t.Fatalf("filter %q should match any executor, missed %q", filter, other)
	}
}

func TestNewCorrelationDataIsSixteenUniqueBytes(t *testing.T) {
	a := NewCorrelationData()
	b := NewCorrelationData()
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("len(a)=%d len(b)=%d, want 16 each", len(a), len(b))
	}
	allZero := true
	for _, v := range a {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Fatal("correlation data should not be all zero")
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("two calls to NewCorrelationData produced identical bytes")
	}
}
