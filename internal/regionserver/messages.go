package regionserver

import (
	"sync"

	"regionserver/internal/region"
)

// MessageKind enumerates the outbound message kinds of spec.md §3.
type MessageKind int

const (
	ReportOpen MessageKind = iota
	ReportClose
	ReportSplit
	ReportProcessOpen
	ReportExiting
	ReportQuiesced
)

func (k MessageKind) String() string {
	switch k {
	case ReportOpen:
		return "REPORT_OPEN"
	case ReportClose:
		return "REPORT_CLOSE"
	case ReportSplit:
		return "REPORT_SPLIT"
	case ReportProcessOpen:
		return "REPORT_PROCESS_OPEN"
	case ReportExiting:
		return "REPORT_EXITING"
	case ReportQuiesced:
		return "REPORT_QUIESCED"
	default:
		return "UNKNOWN"
	}
}

// Message is one entry of the outbound buffer.
type Message struct {
	Kind       MessageKind
	RegionName string
}

// OutboundBuffer is the append-only queue of events destined for the
// master, drained (swap-and-clear) on each heartbeat. Ordering relative
// to other messages in the same heartbeat is preserved (spec §3, §5).
//
// Per spec §9's open question, the source keeps no per-message sequence
// id and tolerates duplicates re-sent after a reconnect; this
// implementation does the same — Drain never deduplicates.
type OutboundBuffer struct {
	mu   sync.Mutex
	msgs []Message
}

// Append adds a message to the tail of the buffer.
func (b *OutboundBuffer) Append(kind MessageKind, regionName string) {
	b.mu.Lock()
	b.msgs = append(b.msgs, Message{Kind: kind, RegionName: regionName})
	b.mu.Unlock()
}

// PrependExiting inserts REPORT_EXITING at the head, used by the final
// shutdown report so it is always first (spec §5 ordering guarantee).
func (b *OutboundBuffer) PrependExiting() {
	b.mu.Lock()
	b.msgs = append([]Message{{Kind: ReportExiting}}, b.msgs...)
	b.mu.Unlock()
}

// Drain atomically swaps out the buffer and returns its prior contents.
func (b *OutboundBuffer) Drain() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = nil
	return out
}

// InstructionKind enumerates the master-issued instruction kinds of
// spec.md §3.
type InstructionKind int

const (
	RegionOpen InstructionKind = iota
	RegionClose
	RegionCloseWithoutReport
	RegionServerQuiesce
	CallServerStartup
	RegionServerStop
)

// Instruction is one bounded-FIFO entry awaiting the Worker, carrying a
// retry counter (spec §3, §4.2).
type Instruction struct {
	Kind       InstructionKind
	RegionName string
	Descriptor region.Descriptor
	Retries    int
}

// InstructionQueue is the bounded FIFO of master-issued instructions of
// spec §3. It is backed by a buffered channel, following the teacher's
// channel-as-queue idiom (internal/cluster/command.go).
type InstructionQueue struct {
	ch chan Instruction
}

// NewInstructionQueue creates a queue with the given bound.
func NewInstructionQueue(capacity int) *InstructionQueue {
	return &InstructionQueue{ch: make(chan Instruction, capacity)}
}

// Push enqueues an instruction, blocking if the queue is full.
func (q *InstructionQueue) Push(i Instruction) { q.ch <- i }

// TryPush enqueues without blocking, reporting whether it succeeded.
func (q *InstructionQueue) TryPush(i Instruction) bool {
	select {
	case q.ch <- i:
		return true
	default:
		return false
	}
}

// Chan exposes the receive side for select-based consumption.
func (q *InstructionQueue) Chan() <-chan Instruction { return q.ch }

// Len reports the number of queued (not yet dequeued) instructions.
// Housekeeping does not scan the queue: draining and re-pushing would
// violate FIFO order, so it re-announces only in-flight opens (see
// Worker.openInProgress), not REGION_OPEN entries still queued.
func (q *InstructionQueue) Len() int { return len(q.ch) }
