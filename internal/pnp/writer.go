package pnp

import (
	"github.com/orizon-iot/iotcore/internal/azjson"
	"github.com/orizon-iot/iotcore/internal/azresult"
)

const (
	propertyAckCodeName        = "ac"
	propertyAckVersionName     = "av"
	propertyAckDescriptionName = "ad"
	propertyResponseValueName  = "value"
)

// BeginComponent opens a component wrapper object inside a reported-twin
// document being built with w, writing the "__t":"c" component marker.
// The caller writes the component's own properties next and finishes with
// EndComponent.
func BeginComponent(w *azjson.Writer, componentName string) azresult.Result {
	if res := w.PropertyName([]byte(componentName)); res.Failed() {
		return res
	}
	if res := w.BeginObject(); res.Failed() {
		return res
	}
	if res := w.PropertyName([]byte(propComponentMarker)); res.Failed() {
		return res
	}
	return w.String([]byte(componentMarkerValue))
}

// EndComponent closes a component wrapper object opened with BeginComponent.
func EndComponent(w *azjson.Writer) azresult.Result {
	return w.EndObject()
}

// BeginPropertyWithStatus opens a reported-twin property acknowledgement
// envelope: {"ac":ackCode,"av":ackVersion,"ad":ackDescription,"value":<caller writes this>.
// "ad" is omitted when ackDescription is empty. When componentName is non-empty, the property is additionally wrapped in
// that component's object with the "__t":"c" marker. Call EndPropertyWithStatus
// with the same componentName once the value has been written.
func BeginPropertyWithStatus(w *azjson.Writer, componentName, propertyName string, ackCode, ackVersion int32, ackDescription string) azresult.Result {
	if componentName != "" {
		if res := BeginComponent(w, componentName); res.Failed() {
			return res
		}
	}

	if res := w.PropertyName([]byte(propertyName)); res.Failed() {
		return res
	}
	if res := w.BeginObject(); res.Failed() {
		return res
	}
	if res := w.PropertyName([]byte(propertyAckCodeName)); res.Failed() {
		return res
	}
	if res := w.Int32(ackCode); res.Failed() {
		return res
	}
	if res := w.PropertyName([]byte(propertyAckVersionName)); res.Failed() {
		return res
	}
	if res := w.Int32(ackVersion); res.Failed() {
		return res
	}
	if ackDescription != "" {
		if res := w.PropertyName([]byte(propertyAckDescriptionName)); res.Failed() {
			return res
		}
		if res := w.String([]byte(ackDescription)); res.Failed() {
			return res
		}
	}
	return w.PropertyName([]byte(propertyResponseValueName))
}

// EndPropertyWithStatus closes the envelope opened by BeginPropertyWithStatus.
// componentName must match the value passed to the matching Begin call.
func EndPropertyWithStatus(w *azjson.Writer, componentName string) azresult.Result {
	if res := w.EndObject(); res.Failed() {
		return res
	}
	if componentName != "" {
		return EndComponent(w)
	}
	return azresult.Ok()
}
