// Package broker distributes engine events between processes. It provides a
// minimal topic based pub/sub surface with two implementations: an in process
// broker for single binary deployments and a NATS backed broker for fanning a
// run's event stream out to other services.
//
// Interface hierarchy:
//   - Broker: top level interface for accessing topics
//     └── Topic: publish events, subscribe hooks
//     └── Subscription: explicit lifecycle with cleanup
//
// Subscribers attach an events.Hook to a topic; the broker decodes and routes
// each event to the matching hook method. Published events cross the NATS
// transport in the tagged JSON encoding from the events package, so non Go
// consumers can participate with nothing more than a JSON parser.
//
// Example usage:
//
//	b := broker.Local()
//	topic := b.Topic(ctx, "run."+runID.String())
//
//	sub, err := topic.Subscribe(ctx, hook)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
//	if err := topic.Publish(ctx, events.Transfer{RunID: runID, Target: "triage"}); err != nil {
//	    return err
//	}
package broker
