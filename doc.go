// Package latch arbitrates a single shared value between a periodic
// background writer and an interactive editor.
//
// The value is owned by a Session. A Refresher samples a new value once per
// interval and offers it to the Session; an interactive caller may open an
// edit session to claim exclusive write access for a while. Background writes
// that arrive during an edit are dropped, never queued, so a slow typist is
// never overwritten and no stale sample lands when the edit ends.
//
// # State Machine
//
// A Session is always in one of two states:
//
//   - Locked: the initial state; background writes are applied
//   - Editing: an edit session is open; only interactive input is applied
//
// Transitions:
//
//	Locked  --BeginEdit-->              Editing   LockChanged(false)
//	Editing --ApplyInteractiveInput-->  Editing   ValueChanged(n)
//	Editing --CommitEdit/CancelEdit-->  Locked    LockChanged(true)
//	Locked  --TryBackgroundWrite-->     Locked    ValueChanged(v)
//	Editing --TryBackgroundWrite-->     Editing   (dropped)
//
// Repeated BeginEdit, and CommitEdit/CancelEdit while locked, are no-ops.
// CancelEdit does not roll back input already applied.
//
// # Observers
//
// Observers registered with Subscribe are called synchronously, in
// subscription order, for every accepted change. A panicking observer is
// recovered and does not prevent delivery to the others; the failure is
// recorded in ObserverFailures and emitted as ObserverPanicked.
//
// Delivery happens after the Session releases its lock, so an observer may
// call CommitEdit, BeginEdit or any other method. Events raised from inside
// an observer are delivered after the current one.
//
// # Sample sources
//
// The Refresher draws from a Sampler. RandomSampler is the default;
// WatchSampler turns any Watcher into a sampler holding the latest integer
// payload. FileWatcher and ChannelWatcher ship here, and the redis, nats,
// etcd, consul and zookeeper sub-packages watch a single remote key:
//
//	src := redis.New(client, "sensor:temp")
//	sampler, err := latch.NewWatchSampler(ctx, src)
//	if err != nil {
//	    return err
//	}
//	refresher := latch.NewRefresher(session).Sampler(sampler)
//
// # Signals
//
// Lifecycle events are emitted through capitan for logging and auditing:
//
//	capitan.Hook(latch.EditCommitted, func(_ context.Context, e *capitan.Event) {
//	    v, _ := latch.KeyValue.From(e)
//	    log.Printf("committed %d", v)
//	})
//
// # Example
//
//	session := latch.NewSession()
//	session.Subscribe(func(e latch.Event) {
//	    fmt.Println(e)
//	})
//
//	refresher := latch.NewRefresher(session).Interval(time.Second)
//	if err := refresher.Start(ctx); err != nil {
//	    return err
//	}
//
//	session.BeginEdit()
//	session.ApplyInteractiveInput("42")
//	session.CommitEdit()
package latch
