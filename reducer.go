package fluxus

// Reducer computes the next state from the current state and an action.
//
// Reducers are expected to be pure: they must not mutate the incoming state
// and should return a new value when something changes. This is a convention,
// the store does not enforce it.
type Reducer[S any] func(state S, action Action) S

// HandlerMap maps action types to the handler that reduces them.
type HandlerMap[S any] map[string]func(state S, action Action) S

// CreateReducer builds a [Reducer] from an initial state and a handler map.
//
// The returned reducer looks up the handler registered for action.Type and
// returns its result. Unknown action types leave the state unchanged. The
// handler map is copied, so later changes to handlers do not affect the
// reducer.
//
// The reducer returns initialState for [ActionInit] unless handlers contains
// an entry for it. This is the one type that does not leave the state
// unchanged: dispatching ActionInit to a store resets it.
//
// Example:
//
//	reducer := fluxus.CreateReducer(Counter{}, fluxus.HandlerMap[Counter]{
//	    "increment": func(s Counter, _ fluxus.Action) Counter { return Counter{Count: s.Count + 1} },
//	})
func CreateReducer[S any](initialState S, handlers HandlerMap[S]) Reducer[S] {
	table := make(HandlerMap[S], len(handlers))
	for actionType, h := range handlers {
		if h != nil {
			table[actionType] = h
		}
	}

	return func(state S, action Action) S {
		if h, ok := table[action.Type]; ok {
			return h(state, action)
		}
		if action.Type == ActionInit {
			return initialState
		}
		return state
	}
}

// InitialState asks a reducer for its initial state by reducing the zero
// value of S with [ActionInit].
func InitialState[S any](r Reducer[S]) S {
	var zero S
	return r(zero, Action{Type: ActionInit})
}
