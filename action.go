package fluxus

import "fmt"

// ActionInit is the reserved action type used to ask a reducer for its
// initial state.
//
// Reducers built with [CreateReducer] return their initial state for this
// action unless a handler is registered for it. See [InitialState].
const ActionInit = "@@fluxus/INIT"

// Action describes an intended state change.
//
// Type identifies the change and is matched against reducer handlers.
// Payload carries optional data; a nil Payload means the action has none.
// Actions are plain values and are created fresh for every dispatch.
type Action struct {
	// Type is the action tag, e.g. "todos/add".
	Type string `json:"type" yaml:"type"`

	// Payload is the optional data attached to the action.
	Payload any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// HasPayload reports whether the action carries a payload.
func (a Action) HasPayload() bool {
	return a.Payload != nil
}

// String returns a compact representation for logs.
func (a Action) String() string {
	if a.Payload == nil {
		return a.Type
	}
	return fmt.Sprintf("%s(%v)", a.Type, a.Payload)
}

// ActionCreator builds [Action] values of a single type with a payload of
// type P.
//
// Creators are obtained from [CreateAction] and are safe to copy and share.
type ActionCreator[P any] struct {
	actionType string
}

// CreateAction returns an [ActionCreator] for the given action type.
//
// Example:
//
//	addTodo := fluxus.CreateAction[string]("todos/add")
//	store.Dispatch(addTodo.With("Buy milk"))
//
//	increment := fluxus.CreateAction[struct{}]("counter/increment")
//	store.Dispatch(increment.Empty())
func CreateAction[P any](actionType string) ActionCreator[P] {
	return ActionCreator[P]{actionType: actionType}
}

// Type returns the action type produced by this creator.
func (c ActionCreator[P]) Type() string {
	return c.actionType
}

// With returns an action carrying the given payload.
func (c ActionCreator[P]) With(payload P) Action {
	return Action{Type: c.actionType, Payload: payload}
}

// Empty returns an action with no payload.
func (c ActionCreator[P]) Empty() Action {
	return Action{Type: c.actionType}
}

// Match reports whether the action was produced by this creator and returns
// its typed payload.
//
// An action of the right type without a payload matches with the zero value
// of P. An action whose payload is not a P does not match.
func (c ActionCreator[P]) Match(a Action) (P, bool) {
	var zero P
	if a.Type != c.actionType {
		return zero, false
	}
	if a.Payload == nil {
		return zero, true
	}
	p, ok := a.Payload.(P)
	if !ok {
		return zero, false
	}
	return p, true
}
