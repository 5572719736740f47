// Command rpc-server-demo wires internal/rpcserver to a real MQTT broker
// and two real MQTT clients, exercising the wire protocol end to end the
// way original_source/sdk/samples/iot/paho_iot_hub_sas_telemetry_sample.c
// exercises az_mqtt5_rpc_server_hfsm against a live broker. It starts an
// embedded mochi-mqtt broker, connects one paho.mqtt.golang client as the
// command executor (driven by internal/rpcserver) and one as the
// invoker, and runs a single unlock command end to end.
//
// paho.mqtt.golang targets MQTT 3.1.1 on the wire; it has no first-class
// ResponseTopic/CorrelationData/UserProperties API the way an MQTT5
// client would. This demo carries those three fields in a small JSON
// envelope inside the payload instead of as protocol-level MQTT5
// properties, which keeps the demonstration honest about what the
// library it depends on actually does over the wire while still
// exercising internal/rpcserver's real request/response logic.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	brokersrv "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"

	"github.com/orizon-iot/iotcore/internal/hfsm"
	"github.com/orizon-iot/iotcore/internal/platform"
	"github.com/orizon-iot/iotcore/internal/rpcclient"
	"github.com/orizon-iot/iotcore/internal/rpcserver"
)

// envelope carries the MQTT5 properties this demo can't express at the
// protocol level, alongside the application payload.
type envelope struct {
	ResponseTopic   string          `json:"responseTopic,omitempty"`
	CorrelationData []byte          `json:"correlationData,omitempty"`
	Status          string          `json:"status,omitempty"`
	Body            json.RawMessage `json:"body"`
}

func main() {
	addr := flag.String("addr", ":18830", "broker listen address")
	flag.Parse()

	broker := brokersrv.New(nil)
	if err := broker.AddHook(new(auth.AllowHook), nil); err != nil {
		log.Fatalf("add auth hook: %v", err)
	}
	tcp := listeners.NewTCP(listeners.Config{ID: "rpc-demo", Address: *addr})
	if err := broker.AddListener(tcp); err != nil {
		log.Fatalf("add listener: %v", err)
	}
	go func() {
		if err := broker.Serve(); err != nil {
			log.Printf("broker stopped: %v", err)
		}
	}()
	defer broker.Close()
	time.Sleep(100 * time.Millisecond)

	plat := platform.NewSimulated()
	srv, err := rpcserver.New(rpcserver.Options{
		TopicFormat: "vehicles/{modelId}/commands/{executorId}/{commandName}",
		ModelID:     "v1",
		ExecutorID:  "car7",
		CommandName: "unlock",
		Platform:    plat,
		OnError:     func(err error) { log.Printf("rpc server error: %v", err) },
	})
	if err != nil {
		log.Fatalf("new rpc server: %v", err)
	}

	brokerURL := "tcp://127.0.0.1" + *addr
	executor := mqtt.NewClient(mqtt.NewClientOptions().AddBroker(brokerURL).SetClientID("car7-executor"))
	if tok := executor.Connect(); tok.Wait() && tok.Error() != nil {
		log.Fatalf("executor connect: %v", tok.Error())
	}
	defer executor.Disconnect(250)

	done := make(chan struct{})

	srv.Register()
	drainOutbound(srv, executor)

	if tok := executor.Subscribe(srv.SubscribeTopic(), 1, func(_ mqtt.Client, msg mqtt.Message) {
		var env envelope
		if err := json.Unmarshal(msg.Payload(), &env); err != nil {
			log.Printf("bad request envelope: %v", err)
			return
		}
		srv.Dispatch(hfsm.Event{Type: hfsm.EventPubRecvInd, Data: rpcserver.PubRecvData{
			Topic:   msg.Topic(),
			Payload: env.Body,
			Props: rpcserver.Properties{
				ResponseTopic:   env.ResponseTopic,
				CorrelationData: env.CorrelationData,
			},
		}})
		srv.ExecutionFinish(rpcserver.ExecutionFinishData{Status: rpcserver.StatusOK, Payload: []byte(`{"ok":true}`)})
		drainOutbound(srv, executor)
	}); tok.Wait() && tok.Error() != nil {
		log.Fatalf("executor subscribe: %v", tok.Error())
	}

	srv.Dispatch(hfsm.Event{Type: hfsm.EventSubAckRsp, Data: rpcserver.SubAckData{PacketID: 0}})

	invokerClient := rpcclient.Client{InvokerClientID: "dashboard-1", ModelID: "v1"}
	invoker := mqtt.NewClient(mqtt.NewClientOptions().AddBroker(brokerURL).SetClientID("dashboard-1"))
	if tok := invoker.Connect(); tok.Wait() && tok.Error() != nil {
		log.Fatalf("invoker connect: %v", tok.Error())
	}
	defer invoker.Disconnect(250)

	responseTopic, res := invokerClient.GetResponseTopic("car7", "unlock")
	if res.Failed() {
		log.Fatalf("response topic: %v", res)
	}
	responseFilter, res := invokerClient.GetResponseSubscribeTopic("unlock")
	if res.Failed() {
		log.Fatalf("response filter: %v", res)
	}
	if tok := invoker.Subscribe(responseFilter, 1, func(_ mqtt.Client, msg mqtt.Message) {
		var env envelope
		if err := json.Unmarshal(msg.Payload(), &env); err != nil {
			log.Printf("bad response envelope: %v", err)
			return
		}
		fmt.Printf("invoker received status=%s body=%s\n", env.Status, env.Body)
		close(done)
	}); tok.Wait() && tok.Error() != nil {
		log.Fatalf("invoker subscribe: %v", tok.Error())
	}

	requestTopic, res := invokerClient.GetPublishTopic("car7", "unlock")
	if res.Failed() {
		log.Fatalf("request topic: %v", res)
	}
	requestEnvelope, _ := json.Marshal(envelope{
		ResponseTopic:   responseTopic,
		CorrelationData: rpcclient.NewCorrelationData(),
		Body:            json.RawMessage(`{}`),
	})
	if tok := invoker.Publish(requestTopic, 1, false, requestEnvelope); tok.Wait() && tok.Error() != nil {
		log.Fatalf("publish request: %v", tok.Error())
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		fmt.Fprintln(os.Stderr, "timed out waiting for response")
		os.Exit(1)
	}
}

// drainOutbound performs every queued SubReq/PubReq against the real
// broker connection, the glue a production transport adapter would
// provide in place of this demo's direct paho calls.
func drainOutbound(srv *rpcserver.Server, client mqtt.Client) {
	for _, e := range srv.Outbound() {
		switch e.Type {
		case hfsm.EventPubReq:
			data := e.Data.(rpcserver.PubReqData)
			env, _ := json.Marshal(envelope{
				Status: data.Props.UserProperties["status"],
				Body:   json.RawMessage(data.Payload),
			})
			if tok := client.Publish(data.Topic, data.QoS, false, env); tok.Wait() && tok.Error() != nil {
				log.Printf("publish response: %v", tok.Error())
			}
		case hfsm.EventSubReq:
			// The caller issues the subscription itself in this demo's
			// flow; a production adapter would issue the SUBSCRIBE packet
			// here and dispatch EventSubAckRsp on its ack.
		}
	}
}
