package abi

// SendArgs is the argument block for the SEND syscall.
type SendArgs struct {
	Destination ThreadID
	Type        MessageType
	ID          MessageID
	PayloadPtr  uintptr
	PayloadSize uint32
	DestAddr    uintptr
}

// SendReply is the SEND syscall's sole output.
type SendReply struct {
	Status Status
}

// SendAndReceiveArgs is the argument block for SEND_AND_RECEIVE; the
// shape is identical to SendArgs, kept distinct so the two syscalls
// can evolve independently.
type SendAndReceiveArgs struct {
	Destination ThreadID
	Type        MessageType
	ID          MessageID
	PayloadPtr  uintptr
	PayloadSize uint32
	DestAddr    uintptr
}

// SendAndReceiveReply carries the reply message back to the caller.
type SendAndReceiveReply struct {
	Source      ThreadID
	Type        MessageType
	ID          MessageID
	PayloadPtr  uintptr
	PayloadSize uint32
	Status      Status
}

// ReceiveArgs is the argument block for RECEIVE.
type ReceiveArgs struct {
	Wait bool
}

// ReceiveReply carries the received message back to the caller.
type ReceiveReply struct {
	Source      ThreadID
	Type        MessageType
	ID          MessageID
	PayloadPtr  uintptr
	PayloadSize uint32
	Status      Status
}

// DeleteMessageArgs is the argument block for DELETE_MESSAGE: it frees
// an Inline or Shared payload slot in the caller's address space after
// the application is done reading it. Word payloads need no cleanup.
type DeleteMessageArgs struct {
	PayloadPtr  uintptr
	PayloadSize uint32
}

// DeleteMessageReply is the DELETE_MESSAGE syscall's sole output.
type DeleteMessageReply struct {
	Status Status
}

// KernelStats is the record populated by READ_KERNEL_STATS. The
// address-space/memory fields are owned by the out-of-scope
// address-space layer and are carried here only so the wire shape
// matches spec.md §6; the IPC-scheduler populates only its own
// counters and ThreadCount.
type KernelStats struct {
	AddressSpaceCount uint64
	COWFaultCount     uint64
	PageFaultCount    uint64
	TotalMemoryBytes  uint64
	PagedMemoryBytes  uint64
	PagedRegionCount  uint64

	MessageCount       uint64
	PendingCount       uint64
	IncompleteCount    uint64
	SendErrorCount     uint64
	ReceiveErrorCount  uint64
	LotteryCount       uint64
	IdleCount          uint64
	DirectHandoffCount uint64

	ThreadCount uint64
}
