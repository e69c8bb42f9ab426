// Package opcodes maps AML opcode bytes (including the two-byte extended
// prefix 0x5B) to operation descriptors: operand schema and a handler ID
// the interpreter dispatches on (spec.md §4.3).
//
// The table is grounded the way the teacher's insts package tabulates
// ARM64 encodings: a flat const enumeration of operation identifiers
// (insts/insts.go's Op/Format consts) consumed by a table-driven decoder
// (insts/decoder.go), rather than one Go type per opcode. The concrete
// byte values mirror the real ACPI-standardized opcode space also visible
// (from the opposite, encoding, direction) in
// _examples/other_examples/bobuhiro11-gokvm__aml.go.
package opcodes

// Opcode is a decoded opcode identity: single-byte opcodes occupy
// 0x00-0xFF, extended (0x5B-prefixed) opcodes are represented as
// 0x5B00|byte so they occupy a disjoint range.
type Opcode uint16

const extPrefixByte = 0x5B

// Ext builds the Opcode value for an extended-prefix opcode byte.
func Ext(b byte) Opcode { return Opcode(extPrefixByte)<<8 | Opcode(b) }

// IsExtended reports whether op was decoded behind the 0x5B prefix.
func (op Opcode) IsExtended() bool { return op > 0xFF }

// Single-byte opcodes.
const (
	ZeroOp     Opcode = 0x00
	OneOp      Opcode = 0x01
	AliasOp    Opcode = 0x06
	NameOp     Opcode = 0x08
	BytePrefix Opcode = 0x0A
	WordPrefix Opcode = 0x0B
	DWordPrefix Opcode = 0x0C
	StringPrefixOp Opcode = 0x0D
	QWordPrefix Opcode = 0x0E
	ScopeOp    Opcode = 0x10
	BufferOp   Opcode = 0x11
	PackageOp  Opcode = 0x12
	VarPackageOp Opcode = 0x13
	MethodOp   Opcode = 0x14
	ExternalOp Opcode = 0x15

	DualNamePrefix  Opcode = 0x2E
	MultiNamePrefix Opcode = 0x2F
	ExtOpPrefixByteOp Opcode = 0x5B
	RootChar        Opcode = 0x5C
	ParentPrefixChar Opcode = 0x5E

	Local0Op Opcode = 0x60
	Local1Op Opcode = 0x61
	Local2Op Opcode = 0x62
	Local3Op Opcode = 0x63
	Local4Op Opcode = 0x64
	Local5Op Opcode = 0x65
	Local6Op Opcode = 0x66
	Local7Op Opcode = 0x67

	Arg0Op Opcode = 0x68
	Arg1Op Opcode = 0x69
	Arg2Op Opcode = 0x6A
	Arg3Op Opcode = 0x6B
	Arg4Op Opcode = 0x6C
	Arg5Op Opcode = 0x6D
	Arg6Op Opcode = 0x6E

	StoreOp     Opcode = 0x70
	RefOfOp     Opcode = 0x71
	AddOp       Opcode = 0x72
	ConcatOp    Opcode = 0x73
	SubtractOp  Opcode = 0x74
	IncrementOp Opcode = 0x75
	DecrementOp Opcode = 0x76
	MultiplyOp  Opcode = 0x77
	DivideOp    Opcode = 0x78
	ShiftLeftOp Opcode = 0x79
	ShiftRightOp Opcode = 0x7A
	AndOp  Opcode = 0x7B
	NAndOp Opcode = 0x7C
	OrOp   Opcode = 0x7D
	NOrOp  Opcode = 0x7E
	XOrOp  Opcode = 0x7F
	NotOp  Opcode = 0x80

	FindSetLeftBitOp  Opcode = 0x81
	FindSetRightBitOp Opcode = 0x82
	DerefOfOp         Opcode = 0x83
	ConcatResOp       Opcode = 0x84
	ModOp             Opcode = 0x85
	NotifyOp          Opcode = 0x86
	SizeOfOp          Opcode = 0x87
	IndexOp           Opcode = 0x88
	MatchOp           Opcode = 0x89

	CreateDWordFieldOp Opcode = 0x8A
	CreateWordFieldOp  Opcode = 0x8B
	CreateByteFieldOp  Opcode = 0x8C
	CreateBitFieldOp   Opcode = 0x8D
	ObjectTypeOp       Opcode = 0x8E
	CreateQWordFieldOp Opcode = 0x8F

	LAndOp Opcode = 0x90
	LOrOp  Opcode = 0x91
	LNotOp Opcode = 0x92
	LEqualOp Opcode = 0x93
	LGreaterOp Opcode = 0x94
	LLessOp Opcode = 0x95

	ToBufferOp        Opcode = 0x96
	ToDecimalStringOp Opcode = 0x97
	ToHexStringOp     Opcode = 0x98
	ToIntegerOp       Opcode = 0x99
	ToStringOp        Opcode = 0x9C
	CopyObjectOp      Opcode = 0x9D
	MidOp             Opcode = 0x9E
	ContinueOp        Opcode = 0x9F

	IfOp     Opcode = 0xA0
	ElseOp   Opcode = 0xA1
	WhileOp  Opcode = 0xA2
	NoopOp   Opcode = 0xA3
	ReturnOp Opcode = 0xA4
	BreakOp  Opcode = 0xA5

	BreakPointOp Opcode = 0xCC
	OnesOp       Opcode = 0xFF
)

// Extended (0x5B-prefixed) opcodes.
var (
	MutexOp       = Ext(0x01)
	EventOp       = Ext(0x02)
	CondRefOfOp   = Ext(0x12)
	CreateFieldOp = Ext(0x13)
	LoadTableOp   = Ext(0x1F)
	LoadOp        = Ext(0x20)
	StallOp       = Ext(0x21)
	SleepOp       = Ext(0x22)
	AcquireOp     = Ext(0x23)
	SignalOp      = Ext(0x24)
	WaitOp        = Ext(0x25)
	ResetOp       = Ext(0x26)
	ReleaseOp     = Ext(0x27)
	FromBCDOp     = Ext(0x28)
	ToBCDOp       = Ext(0x29)
	UnloadOp      = Ext(0x2A)
	RevisionOp    = Ext(0x30)
	DebugOp       = Ext(0x31)
	FatalOp       = Ext(0x32)
	TimerOp       = Ext(0x33)
	OpRegionOp    = Ext(0x80)
	FieldOp       = Ext(0x81)
	DeviceOp      = Ext(0x82)
	ProcessorOp   = Ext(0x83)
	PowerResOp    = Ext(0x84)
	ThermalZoneOp = Ext(0x85)
	IndexFieldOp  = Ext(0x86)
	BankFieldOp   = Ext(0x87)
	DataRegionOp  = Ext(0x88)
)

// Class classifies an opcode's broad role (spec.md §4.3: "an opcode kind
// (term, data, reference, statement)").
type Class uint8

const (
	ClassData Class = iota
	ClassTerm
	ClassReference
	ClassStatement
	ClassNamedObject
	ClassNamespaceModifier
)

// OperandKind enumerates the operand schema entries a descriptor's Operands
// list is built from (spec.md §4.3: "expected operand schema").
type OperandKind uint8

const (
	OperandTermArg OperandKind = iota
	OperandSuperName
	OperandTarget
	OperandNameString
	OperandByteData
	OperandWordData
	OperandDWordData
	OperandQWordData
	OperandStringData
	OperandPkgLength
	OperandByteList
	OperandFieldList
	OperandVarTermArgList // remaining TermArgs until PkgLength's end
)

// Descriptor is one opcode table entry.
type Descriptor struct {
	Name     string
	Class    Class
	Operands []OperandKind
	// HasPkgLength is true for opcodes whose encoding starts with a
	// PkgLength before any other operand (Scope/Buffer/Package/Method/
	// Device/...), per spec.md §6's AML binary format notes.
	HasPkgLength bool
}
