// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rdv provides synchronization primitives with dual blocking
// and suspending waits, plus a bridge that surfaces an event-driven
// frame transport as suspending per-connection streams. Suspension is
// expressed as algebraic effects on [code.hybscloud.com/kont].
//
// # Architecture
//
//   - Raw layer: [RawLock]/[RawCondition] backends ([NewStdLock],
//     [NewSpinLock], [NewStdCondition]) under typed [Lock], [Guard] and
//     [Condition] accessors.
//   - Primitives: [Notification] (coalescing flag), [Signal]
//     (latest-value slot), [Rendezvous]/[Receiver] (single-slot
//     zero-copy hand-off), [TaskMutex] (mutex for suspended code).
//   - Non-blocking: every Poll method registers a [Waker] and returns
//     [code.hybscloud.com/iox.ErrWouldBlock] until progress is possible.
//   - Execution: Dual-world API supporting closure-based (Cont-world)
//     and defunctionalized (Expr-world) evaluation.
//
// # API Topologies
//
//   - Operations: [Await], [Observe], [Acquire], [Put], [Drain],
//     [Take], [Read], [AwaitAccept].
//   - Cont-world: [AwaitThen], [ObserveBind], [AcquireBind],
//     [WithLock], [SetEff], [TakeBind], [ReadEff], [AcceptBind].
//   - Expr-world: Zero-allocation variants like [ExprAwaitThen],
//     [ExprObserveBind], etc. Bridge via [Reify] and [Reflect].
//   - Recursive: [Loop] and [ExprLoop] for trampoline-based iterative
//     protocols.
//
// # Integration
//
//   - Stepping: [Step] and [Advance] evaluate computations one suspend
//     point at a time, making them easy to integrate with a proactor
//     loop.
//   - Blocking: [Exec] and [Join] wait past boundaries by parking, or
//     with adaptive backoff.
//   - Transport: [NewProcessor] returns the [Processor] fed by the
//     transport loop and the [Acceptor] yielding suspending [Conn]
//     streams.
//
// # Example
//
//	n := new(rdv.Notification)
//	protocol := rdv.AwaitThen(n, kont.Pure("woken"))
//	go n.Notify()
//	result := rdv.Exec(protocol)
package rdv
