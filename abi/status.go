package abi

// Status is the kernel's return-code taxonomy: zero is success,
// negative values alias POSIX errno where one exists, and a few
// core-specific codes have no POSIX analogue.
type Status int32

const (
	Success Status = 0

	// AccessDenied: the caller may not perform the requested operation.
	AccessDenied Status = -iota - 1
	// InvalidData: a supplied argument or pointer range is malformed.
	InvalidData
	// InsufficientMemory: no frame/slot/virtual-range could be allocated.
	InsufficientMemory
	// IOError: delivery faulted in a way the caller may retry.
	IOError
	// MailboxEmpty: receive(wait=false) found nothing pending.
	MailboxEmpty
	// MailboxOverflow: the destination mailbox is already at capacity.
	MailboxOverflow
	// MessageDeadlock: a blocking send whose source equals destination.
	MessageDeadlock
	// ResourceConflict: a correlator or identity is already in use.
	ResourceConflict
	// MailboxDisabled: the destination mailbox is draining or gone.
	MailboxDisabled
	// ThreadExited: the peer was deleted before the transaction finished.
	ThreadExited
)

var statusNames = map[Status]string{
	Success:             "SUCCESS",
	AccessDenied:        "ACCESS_DENIED",
	InvalidData:         "INVALID_DATA",
	InsufficientMemory:  "INSUFFICIENT_MEMORY",
	IOError:             "IO_ERROR",
	MailboxEmpty:        "MAILBOX_EMPTY",
	MailboxOverflow:     "MAILBOX_OVERFLOW",
	MessageDeadlock:     "MESSAGE_DEADLOCK",
	ResourceConflict:    "RESOURCE_CONFLICT",
	MailboxDisabled:     "MAILBOX_DISABLED",
	ThreadExited:        "THREAD_EXITED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN_STATUS"
}

// Error lets a bare Status satisfy the error interface so it can be
// returned directly from operations that have no richer context to
// attach; kernelerr.Wrap is used wherever a cause or stack trace adds
// value.
func (s Status) Error() string {
	return s.String()
}
