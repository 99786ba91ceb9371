// Package message implements the three-variant message object
// hierarchy of spec.md §3–§4.1: Word, Inline, and Shared. Per spec.md
// §9's design note, this is a tagged union with a single dispatch
// function per operation rather than a virtual-dispatch class
// hierarchy — the three variants differ in small, fixed ways that do
// not warrant open extension.
package message

import (
	"sync/atomic"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/hal"
	"github.com/dgaur/dx-kernel/kernelerr"
)

// Variant tags which payload-transport strategy a Message uses.
type Variant int

const (
	// Word carries a single opaque word inline, no transport step.
	Word Variant = iota
	// Inline carries 1..=INLINE_MAX bytes, copied into the recipient's
	// address space.
	Inline
	// Shared carries a payload too large for Inline, or one the
	// caller asked to land at a specific address; delivered by
	// mapping shared frames into the recipient.
	Shared
)

func (v Variant) String() string {
	switch v {
	case Word:
		return "Word"
	case Inline:
		return "Inline"
	case Shared:
		return "Shared"
	default:
		return "Unknown"
	}
}

// poolIndexNone is the sentinel pool_index value for "not pending".
const poolIndexNone = -1

// Message is the tagged union spec.md §3 describes. Fields below the
// "payload" comment are variant-specific; only the fields relevant to
// a Message's Variant are meaningful at any time.
type Message struct {
	Source      abi.ThreadID
	Destination abi.ThreadID
	Type        abi.MessageType
	ID          abi.MessageID
	Control     abi.ControlFlags
	Variant     Variant

	// poolIndex is the back-reference into the global pending pool
	// (spec.md §4.3 / §9's "arena-and-index" note): a plain int, never
	// a shared-ownership pointer, so the pool can swap-remove in O(1).
	poolIndex int32

	// word is the Word variant's opaque payload.
	word uintptr

	// inlineBuf holds the Inline variant's copied bytes.
	inlineBuf []byte

	// sharedFrames / sharedHandle / sharedDestAddr / mappedAt are the
	// Shared variant's state across collectPayload -> deliverPayload.
	sharedFrames   hal.FrameRange
	sharedHandle   uintptr
	sharedDestAddr uintptr
	mappedAt       uintptr

	// readPtr/readSize are set by deliverPayload and observed by
	// readPayload.
	readPtr  uintptr
	readSize uint32

	// selfRefCount is a debug-only counter distinct from the thread
	// reference counts (SPEC_FULL.md §3 supplement), never exposed
	// through syscalls. The consistency checker in ipc/checker_debug.go
	// does not read it.
	selfRefCount int32
}

// NewWord constructs a Word message.
func NewWord(source, destination abi.ThreadID, typ abi.MessageType, id abi.MessageID, word uintptr) *Message {
	m := newCommon(source, destination, typ, id)
	m.Variant = Word
	m.word = word
	return m
}

// NewInline constructs an Inline message. The bytes are not copied
// yet — CollectPayload does that, from sender context, per spec.md
// §4.1.
func NewInline(source, destination abi.ThreadID, typ abi.MessageType, id abi.MessageID) *Message {
	m := newCommon(source, destination, typ, id)
	m.Variant = Inline
	return m
}

// NewShared constructs a Shared message targeting frames, optionally
// at a caller-chosen destAddr (zero means "let the address-space
// layer choose").
func NewShared(source, destination abi.ThreadID, typ abi.MessageType, id abi.MessageID, frames hal.FrameRange, destAddr uintptr) *Message {
	m := newCommon(source, destination, typ, id)
	m.Variant = Shared
	m.sharedFrames = frames
	m.sharedDestAddr = destAddr
	return m
}

func newCommon(source, destination abi.ThreadID, typ abi.MessageType, id abi.MessageID) *Message {
	return &Message{
		Source:      source,
		Destination: destination,
		Type:        typ,
		ID:          id,
		poolIndex:   poolIndexNone,
	}
}

// IsBlocking reports whether this message is a synchronous send
// awaiting a reply.
func (m *Message) IsBlocking() bool {
	return m.Control.Has(abi.Blocking)
}

// IsAtomic reports whether this message is self-contained, i.e. its
// ID is the reserved Atomic sentinel.
func (m *Message) IsAtomic() bool {
	return m.ID == abi.Atomic
}

// PoolIndex returns the message's current back-reference into the
// global pending pool, or poolIndexNone if it is not pending.
func (m *Message) PoolIndex() int32 {
	return atomic.LoadInt32(&m.poolIndex)
}

// SetPoolIndex is called only by package pool.
func (m *Message) SetPoolIndex(i int32) {
	atomic.StoreInt32(&m.poolIndex, i)
}

// ClearPoolIndex resets the back-reference to "not pending".
func (m *Message) ClearPoolIndex() {
	atomic.StoreInt32(&m.poolIndex, poolIndexNone)
}

// AddSelfRef/ReleaseSelfRef/SelfRefCount maintain the debug-only
// counter described on the Message struct.
func (m *Message) AddSelfRef() { atomic.AddInt32(&m.selfRefCount, 1) }
func (m *Message) ReleaseSelfRef() int32 {
	return atomic.AddInt32(&m.selfRefCount, -1)
}
func (m *Message) SelfRefCount() int32 { return atomic.LoadInt32(&m.selfRefCount) }

// CollectPayload is called once, before delivery, in sender context.
// Word always succeeds; Inline copies bytes from the sender's address
// space; Shared asks addrSpace to authorize and register the frames.
//
// For Inline, src/srcSize name the sender-supplied source range to
// copy from; for Shared and Word they are ignored.
func (m *Message) CollectPayload(addrSpace hal.AddressSpace, src uintptr, srcSize uint32, inlineMax uint32, shareCaps hal.ShareCapability) error {
	switch m.Variant {
	case Word:
		return nil

	case Inline:
		if srcSize == 0 || srcSize > inlineMax {
			return kernelerr.New(abi.InvalidData, "inline payload size out of range")
		}
		buf, err := addrSpace.CopyIn(m.Source, src, srcSize)
		if err != nil {
			return kernelerr.Wrap(err, abi.InvalidData, "failed to copy inline payload from sender")
		}
		m.inlineBuf = buf
		return nil

	case Shared:
		class := addrSpace.ClassifyRegion(m.sharedFrames)
		if class == hal.RegionKernelSuperpage && shareCaps&hal.CapShareKernelMemory == 0 {
			return kernelerr.New(abi.AccessDenied, "sender may not share kernel superpage frames")
		}
		handle, err := addrSpace.RegisterShare(m.Source, m.sharedFrames)
		if err != nil {
			return kernelerr.Wrap(err, abi.InsufficientMemory, "no frame-share entry available")
		}
		m.sharedHandle = handle
		return nil

	default:
		return kernelerr.New(abi.InvalidData, "unknown message variant")
	}
}

// DeliverPayload is called once, after retrieval, in recipient
// context. It makes the payload observable via ReadPayload.
func (m *Message) DeliverPayload(addrSpace hal.AddressSpace) error {
	switch m.Variant {
	case Word:
		m.readPtr = m.word
		m.readSize = 0
		return nil

	case Inline:
		ptr, err := addrSpace.CopyOut(m.Destination, m.inlineBuf)
		if err != nil {
			return kernelerr.Wrap(err, abi.InsufficientMemory, "no free slot in medium payload pool")
		}
		m.readPtr = ptr
		m.readSize = uint32(len(m.inlineBuf))
		return nil

	case Shared:
		mappedAt, err := addrSpace.MapShared(m.Destination, m.sharedHandle, m.sharedDestAddr)
		if err != nil {
			return kernelerr.Wrap(err, abi.InsufficientMemory, "no virtual range available for shared mapping")
		}
		m.mappedAt = mappedAt
		m.readPtr = mappedAt
		m.readSize = m.sharedFrames.FrameCount * 0x1000
		return nil

	default:
		return kernelerr.New(abi.InvalidData, "unknown message variant")
	}
}

// ReadPayload returns the (pointer, size) observable to the recipient
// after DeliverPayload has succeeded.
func (m *Message) ReadPayload() (uintptr, uint32) {
	return m.readPtr, m.readSize
}
