package pnp

import (
	"testing"

	"github.com/orizon-iot/iotcore/internal/azjson"
)

func TestDesiredPropertiesRootOnly(t *testing.T) {
	payload := `{
		"temperature": 21,
		"$version": 3
	}`
	r := azjson.NewReader([]byte(payload))
	it := NewPropertyIterator(r, ResponseTypeDesiredProperties, nil)

	p, res := it.Next()
	if res.Failed() {
		t.Fatalf("next: %v", res)
	}
	if p.Component != "" || p.Name != "temperature" || string(p.RawValue) != "21" {
		t.Fatalf("got %+v", p)
	}

	_, res = it.Next()
	if !res.Failed() {
		t.Fatalf("expected end of properties")
	}
}

func TestDesiredPropertiesWithRegisteredComponent(t *testing.T) {
	payload := `{
		"thermostat1": {
			"__t": "c",
			"targetTemperature": 50
		},
		"unregisteredThing": {
			"__t": "c",
			"foo": 1
		},
		"topLevel": true,
		"$version": 7
	}`
	components := []Component{{Name: "thermostat1"}}
	r := azjson.NewReader([]byte(payload))
	it := NewPropertyIterator(r, ResponseTypeDesiredProperties, components)

	var got []Property
	for {
		p, res := it.Next()
		if res.Failed() {
			break
		}
		got = append(got, p)
	}

	if len(got) != 3 {
		t.Fatalf("got %d properties: %+v", len(got), got)
	}
	if got[0].Component != "thermostat1" || got[0].Name != "targetTemperature" || string(got[0].RawValue) != "50" {
		t.Fatalf("got[0] = %+v", got[0])
	}
	if got[1].Component != "" || got[1].Name != "unregisteredThing" {
		t.Fatalf("got[1] = %+v", got[1])
	}
	if got[2].Component != "" || got[2].Name != "topLevel" || string(got[2].RawValue) != "true" {
		t.Fatalf("got[2] = %+v", got[2])
	}
}

func TestDesiredPropertiesComponentVersionIncompatibleFallsBackToRoot(t *testing.T) {
	payload := `{
		"thermostat1": {
			"__t": "c",
			"$modelVersion": "1.0.0",
			"targetTemperature": 50
		},
		"$version": 1
	}`
	components := []Component{{Name: "thermostat1", VersionConstraint: ">=2.0.0"}}
	r := azjson.NewReader([]byte(payload))
	it := NewPropertyIterator(r, ResponseTypeDesiredProperties, components)

	p, res := it.Next()
	if res.Failed() {
		t.Fatalf("next: %v", res)
	}
	if p.Component != "" || p.Name != "thermostat1" {
		t.Fatalf("expected fallback to root component, got %+v", p)
	}
}

func TestDesiredPropertiesComponentVersionCompatible(t *testing.T) {
	payload := `{
		"thermostat1": {
			"__t": "c",
			"$modelVersion": "2.1.0",
			"targetTemperature": 50
		},
		"$version": 1
	}`
	components := []Component{{Name: "thermostat1", VersionConstraint: ">=2.0.0"}}
	r := azjson.NewReader([]byte(payload))
	it := NewPropertyIterator(r, ResponseTypeDesiredProperties, components)

	p, res := it.Next()
	if res.Failed() {
		t.Fatalf("next: %v", res)
	}
	if p.Component != "thermostat1" || p.Name != "targetTemperature" || string(p.RawValue) != "50" {
		t.Fatalf("got %+v", p)
	}
}

func TestGetResponseDescendsThroughDesired(t *testing.T) {
	payload := `{
		"desired": {
			"temperature": 21,
			"$version": 3
		},
		"reported": {
			"temperature": 20
		}
	}`
	r := azjson.NewReader([]byte(payload))
	it := NewPropertyIterator(r, ResponseTypeGet, nil)

	p, res := it.Next()
	if res.Failed() {
		t.Fatalf("next: %v", res)
	}
	if p.Name != "temperature" || string(p.RawValue) != "21" {
		t.Fatalf("got %+v", p)
	}

	_, res = it.Next()
	if !res.Failed() {
		t.Fatalf("expected end of properties after desired section")
	}
}

func TestComponentWithOnlyMarkerPropertiesIsSkippedEntirely(t *testing.T) {
	payload := `{
		"thermostat1": {
			"__t": "c"
		},
		"topLevel": 5,
		"$version": 1
	}`
	components := []Component{{Name: "thermostat1"}}
	r := azjson.NewReader([]byte(payload))
	it := NewPropertyIterator(r, ResponseTypeDesiredProperties, components)

	p, res := it.Next()
	if res.Failed() {
		t.Fatalf("next: %v", res)
	}
	if p.Component != "" || p.Name != "topLevel" {
		t.Fatalf("expected empty component to be skipped, got %+v", p)
	}

	_, res = it.Next()
	if !res.Failed() {
		t.Fatalf("expected end of properties")
	}
}

func TestObjectValueRawBytesPreserveNesting(t *testing.T) {
	payload := `{
		"settings": {"a": 1, "b": [1, 2, 3]},
		"$version": 1
	}`
	r := azjson.NewReader([]byte(payload))
	it := NewPropertyIterator(r, ResponseTypeDesiredProperties, nil)

	p, res := it.Next()
	if res.Failed() {
		t.Fatalf("next: %v", res)
	}
	if p.Name != "settings" {
		t.Fatalf("got %+v", p)
	}
	want := `{"a": 1, "b": [1, 2, 3]}`
	if string(p.RawValue) != want {
		t.Fatalf("got raw value %q want %q", p.RawValue, want)
	}
}
