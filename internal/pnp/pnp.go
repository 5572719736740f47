// Package pnp implements IoT Plug and Play twin component traversal and
// the property-with-status acknowledgement builder, grounded in
// az_iot_pnp_client_twin.c.
package pnp

import (
	"github.com/Masterminds/semver/v3"
	"github.com/orizon-iot/iotcore/internal/azjson"
	"github.com/orizon-iot/iotcore/internal/azresult"
)

// ResponseType distinguishes a full twin GET response (which nests the
// root/component section one level deeper, under "desired") from a
// desired-properties PATCH (whose root IS the root/component section).
type ResponseType int

const (
	ResponseTypeDesiredProperties ResponseType = iota
	ResponseTypeGet
)

const (
	propDesired          = "desired"
	propVersion          = "$version"
	propModelVersion     = "$modelVersion"
	propComponentMarker  = "__t"
	componentMarkerValue = "c"
)

// Component is a registered PnP component this device implements.
// VersionConstraint, when non-empty, is a Masterminds/semver constraint
// string (e.g. ">=1.0.0, <2.0.0") that a component-scoped
// "$modelVersion" property in the received twin must satisfy for the
// component's properties to be routed to it; when VersionConstraint is
// empty, or the document carries no $modelVersion for that component,
// the component is accepted unconditionally. An incompatible version is
// treated exactly like an unregistered component name: its properties
// fall back to the root component.
type Component struct {
	Name              string
	VersionConstraint string
}

// Property is one (component, name, value) triple yielded by the twin
// property iterator. Component is empty for root-component properties.
// RawValue is the exact JSON text of the value (a scalar literal or a
// whole nested object/array), valid until the iterator is advanced
// again.
type Property struct {
	Component string
	Name      string
	RawValue  []byte
}

// PropertyIterator walks a twin document's properties component by
// component, mirroring az_iot_pnp_client_twin_get_next_component_property.
type PropertyIterator struct {
	r            *azjson.Reader
	responseType ResponseType
	components   []Component
	baseDepth    int
	started      bool

	// activeComponent names the component whose sub-object properties are
	// currently being walked (depth > baseDepth), or "" while walking
	// root-level properties. It survives across Next calls because a
	// matched component is traversed via tail recursion, which would
	// otherwise lose this context on every call.
	activeComponent string
}

// NewPropertyIterator prepares an iterator over r (which must not have
// had Next called yet) for the given response shape and component
// registry.
func NewPropertyIterator(r *azjson.Reader, responseType ResponseType, components []Component) *PropertyIterator {
	baseDepth := 1
	if responseType == ResponseTypeGet {
		baseDepth = 2
	}
	return &PropertyIterator{r: r, responseType: responseType, components: components, baseDepth: baseDepth}
}

func (it *PropertyIterator) init() azresult.Result {
	if res := it.r.Next(); res.Failed() {
		return res
	}
	if it.r.Current().Kind != azjson.KindBeginObject {
		return azresult.UnexpectedChar("expected object at twin document root")
	}
	if res := it.r.Next(); res.Failed() {
		return res
	}
	if it.responseType == ResponseTypeGet {
		if res := moveToChild(it.r, propDesired); res.Failed() {
			return res
		}
		if res := it.r.Next(); res.Failed() {
			return res
		}
	}
	it.started = true
	return azresult.Ok()
}

// moveToChild scans forward from the current PropertyName token looking
// for a sibling named name, skipping any object children along the way,
// and leaves the reader positioned on that property's value.
func moveToChild(r *azjson.Reader, name string) azresult.Result {
	for {
		cur := r.Current()
		if cur.Kind == azjson.KindPropertyName && string(cur.Slice) == name {
			return r.Next()
		}
		if cur.Kind == azjson.KindBeginObject {
			if res := r.SkipChildren(); res.Failed() {
				return res
			}
		}
		if cur.Kind == azjson.KindEndObject {
			return azresult.ItemNotFound("property not found: " + name)
		}
		if res := r.Next(); res.Failed() {
			return res
		}
	}
}

// skipMarker reads past a property name already known to be a marker
// ("$version"/"$modelVersion"/"__t") and its value, leaving the reader
// positioned on the following token.
func skipMarker(r *azjson.Reader) azresult.Result {
	if res := r.Next(); res.Failed() { // the marker's value
		return res
	}
	if r.Current().Kind == azjson.KindBeginObject || r.Current().Kind == azjson.KindBeginArray {
		if res := r.SkipChildren(); res.Failed() {
			return res
		}
	}
	return r.Next()
}

// Next yields the next property in the document, or EndOfProperties once
// the root/component section is exhausted.
func (it *PropertyIterator) Next() (Property, azresult.Result) {
	if !it.started {
		if res := it.init(); res.Failed() {
			return Property{}, res
		}
	}

	for {
		cur := it.r.Current()
		depth := it.r.Depth()

		if cur.Kind == azjson.KindEndObject {
			if depth == it.baseDepth-1 {
				return Property{}, azresult.EndOfProperties("no more properties")
			}
			// Closes a component's sub-object; resume scanning its siblings.
			if res := it.r.Next(); res.Failed() {
				return Property{}, res
			}
			if it.r.Depth() == it.baseDepth {
				it.activeComponent = ""
			}
			continue
		}

		if cur.Kind != azjson.KindPropertyName {
			return Property{}, azresult.InvalidState("expected property name")
		}
		name := string(cur.Slice)

		if depth == it.baseDepth && name == propVersion {
			if res := skipMarker(it.r); res.Failed() {
				return Property{}, res
			}
			continue
		}
		if depth > it.baseDepth && (name == propComponentMarker || name == propModelVersion) {
			if res := skipMarker(it.r); res.Failed() {
				return Property{}, res
			}
			continue
		}
		break
	}

	if it.activeComponent == "" && it.r.Depth() == it.baseDepth && it.r.Current().Kind == azjson.KindPropertyName {
		candidate := string(it.r.Current().Slice)
		if comp, ok := findComponent(it.components, candidate); ok {
			compatible, res := componentVersionCompatible(it.r.Clone(), comp)
			if res.Failed() {
				return Property{}, res
			}
			if compatible {
				it.activeComponent = comp.Name
				if res := it.r.Next(); res.Failed() { // descend into component object
					return Property{}, res
				}
				if it.r.Current().Kind != azjson.KindBeginObject {
					return Property{}, azresult.UnexpectedChar("expected component object")
				}
				if res := it.r.Next(); res.Failed() {
					return Property{}, res
				}
				return it.Next()
			}
		}
	}

	if it.r.Current().Kind != azjson.KindPropertyName {
		return Property{}, azresult.InvalidState("expected property name")
	}
	propName := string(it.r.Current().Slice)

	if res := it.r.Next(); res.Failed() { // move onto the value
		return Property{}, res
	}
	valueKind := it.r.Current().Kind
	var raw []byte
	if valueKind == azjson.KindBeginObject || valueKind == azjson.KindBeginArray {
		openStart := it.r.Pos() - 1 // Pos() is past the opening brace/bracket already consumed
		if res := it.r.SkipChildren(); res.Failed() {
			return Property{}, res
		}
		raw = it.r.SliceFrom(openStart, it.r.Pos())
	} else {
		raw = it.r.Current().Slice
	}

	if res := it.r.Next(); res.Failed() {
		return Property{}, res
	}

	return Property{Component: it.activeComponent, Name: propName, RawValue: raw}, azresult.Ok()
}

func findComponent(components []Component, name string) (Component, bool) {
	for _, c := range components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// componentVersionCompatible scouts ahead in a throwaway copy of the
// reader (positioned on the component's name token) to look for a
// "$modelVersion" property directly inside the component object and, if
// found along with a non-empty constraint, checks it with semver.
func componentVersionCompatible(scout azjson.Reader, comp Component) (bool, azresult.Result) {
	if comp.VersionConstraint == "" {
		return true, azresult.Ok()
	}
	if res := scout.Next(); res.Failed() { // descend into the component object
		return false, res
	}
	if scout.Current().Kind != azjson.KindBeginObject {
		return false, azresult.UnexpectedChar("expected component object")
	}
	depth := scout.Depth()
	if res := scout.Next(); res.Failed() {
		return false, res
	}
	for scout.Current().Kind != azjson.KindEndObject || scout.Depth() != depth-1 {
		if scout.Current().Kind == azjson.KindPropertyName && string(scout.Current().Slice) == propModelVersion {
			if res := scout.Next(); res.Failed() {
				return false, res
			}
			return checkConstraint(comp.VersionConstraint, string(scout.Current().Slice))
		}
		if scout.Current().Kind == azjson.KindPropertyName {
			if res := scout.Next(); res.Failed() { // value
				return false, res
			}
		}
		if scout.Current().Kind == azjson.KindBeginObject || scout.Current().Kind == azjson.KindBeginArray {
			if res := scout.SkipChildren(); res.Failed() {
				return false, res
			}
		}
		if res := scout.Next(); res.Failed() {
			return false, res
		}
	}
	return true, azresult.Ok()
}

func checkConstraint(constraint, version string) (bool, azresult.Result) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, azresult.InvalidArg("malformed version constraint: " + constraint)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, azresult.InvalidArg("malformed reported model version: " + version)
	}
	return c.Check(v), azresult.Ok()
}
