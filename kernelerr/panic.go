package kernelerr

import (
	"fmt"

	"github.com/dgaur/dx-kernel/abi"
)

// Panic is the payload of a kernel panic (spec.md §7, policy 4):
// allocation failure while synthesizing an abort message, or an
// invariant violation detected by the consistency checker. There is
// no safe fallback once this is raised — message ownership semantics
// would otherwise be indeterminate.
type Panic struct {
	Reason  string
	Victim  abi.ThreadID
	Request abi.MessageID
	Status  abi.Status
}

func (p Panic) String() string {
	return fmt.Sprintf("kernel panic: %s (victim=%s request=%d status=%s)",
		p.Reason, p.Victim, p.Request, p.Status)
}

// Raise panics with a Panic value, so that a recover at the goroutine
// boundary can print the four fields rather than a bare runtime panic.
// Nothing in this repository calls Raise or recovers a Panic.
func Raise(reason string, victim abi.ThreadID, request abi.MessageID, status abi.Status) {
	panic(Panic{Reason: reason, Victim: victim, Request: request, Status: status})
}
