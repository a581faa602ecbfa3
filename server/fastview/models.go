// fastview builds server-side views: a data model is converted to a view-model,
// multiplexed to one or more views, and each view emits element updates for the client.
package fastview

import (
	"html/template"
)

// EleUpdate is an element id and the operations to apply to it.
type EleUpdate struct {
	EleId string
	// Op keys are attribute names, except 'textContent' which sets the element text.
	Ops []Op
}

// Op sets an attribute (or textContent) to a value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a server side view: a template for its initial render,
// and a channel of element updates that keep it current.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the component's template definition to parent and returns its name.
	// Components may use the parent's func-map.
	Parse(parent *template.Template) (string, error)
}
