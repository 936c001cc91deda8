// Package event provides a synchronous pub-sub bus that lets the staircase
// coordinator report progress without depending on its observers.
//
// # Events
//
//   - [ResponseRecordedEvent]: a response reached the coordinator
//   - [TrialSelectedEvent]: a staircase was selected and its value written
//   - [ProcedureFinishedEvent]: one staircase completed
//   - [CoordinatorFinishedEvent]: all staircases completed
//
// # Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeTrialSelected, func(e event.Event) {
//	    sel := e.(event.TrialSelectedEvent)
//	    fmt.Println(sel.Label, sel.Value)
//	})
//	coord, err := multistair.New(cfg, multistair.WithEventBus(bus))
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on the
// publishing goroutine, so a coordinator's events arrive in selection order.
package event
