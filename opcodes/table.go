package opcodes

// shorthand operand-kind slices, reused across many descriptors the way a
// real opcode table groups entries by "ARGP template" rather than spelling
// every operand list out by hand.
var (
	binaryArith = []OperandKind{OperandTermArg, OperandTermArg, OperandTarget}
	unaryArith  = []OperandKind{OperandTermArg, OperandTarget}
	logicalBinary = []OperandKind{OperandTermArg, OperandTermArg}
	logicalUnary  = []OperandKind{OperandTermArg}
)

// table is the opcode -> descriptor map. Built once at init, consulted by
// the decoder on every fetch (spec.md §4.3/§4.4).
var table = map[Opcode]Descriptor{
	ZeroOp: {Name: "Zero", Class: ClassData},
	OneOp:  {Name: "One", Class: ClassData},
	OnesOp: {Name: "Ones", Class: ClassData},

	BytePrefix:     {Name: "BytePrefix", Class: ClassData, Operands: []OperandKind{OperandByteData}},
	WordPrefix:     {Name: "WordPrefix", Class: ClassData, Operands: []OperandKind{OperandWordData}},
	DWordPrefix:    {Name: "DWordPrefix", Class: ClassData, Operands: []OperandKind{OperandDWordData}},
	QWordPrefix:    {Name: "QWordPrefix", Class: ClassData, Operands: []OperandKind{OperandQWordData}},
	StringPrefixOp: {Name: "String", Class: ClassData, Operands: []OperandKind{OperandStringData}},

	NameOp: {Name: "Name", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandNameString, OperandTermArg}},
	AliasOp: {Name: "Alias", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandNameString, OperandNameString}},
	ScopeOp: {Name: "Scope", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{OperandNameString, OperandVarTermArgList}},
	ExternalOp: {Name: "External", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandNameString, OperandByteData, OperandByteData}},

	BufferOp:    {Name: "Buffer", Class: ClassTerm, HasPkgLength: true, Operands: []OperandKind{OperandTermArg, OperandByteList}},
	PackageOp:   {Name: "Package", Class: ClassTerm, HasPkgLength: true, Operands: []OperandKind{OperandByteData, OperandVarTermArgList}},
	VarPackageOp: {Name: "VarPackage", Class: ClassTerm, HasPkgLength: true, Operands: []OperandKind{OperandTermArg, OperandVarTermArgList}},

	MethodOp: {Name: "Method", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{OperandNameString, OperandByteData, OperandVarTermArgList}},

	Local0Op: {Name: "Local0", Class: ClassReference},
	Local1Op: {Name: "Local1", Class: ClassReference},
	Local2Op: {Name: "Local2", Class: ClassReference},
	Local3Op: {Name: "Local3", Class: ClassReference},
	Local4Op: {Name: "Local4", Class: ClassReference},
	Local5Op: {Name: "Local5", Class: ClassReference},
	Local6Op: {Name: "Local6", Class: ClassReference},
	Local7Op: {Name: "Local7", Class: ClassReference},

	Arg0Op: {Name: "Arg0", Class: ClassReference},
	Arg1Op: {Name: "Arg1", Class: ClassReference},
	Arg2Op: {Name: "Arg2", Class: ClassReference},
	Arg3Op: {Name: "Arg3", Class: ClassReference},
	Arg4Op: {Name: "Arg4", Class: ClassReference},
	Arg5Op: {Name: "Arg5", Class: ClassReference},
	Arg6Op: {Name: "Arg6", Class: ClassReference},

	StoreOp: {Name: "Store", Class: ClassTerm, Operands: []OperandKind{OperandTermArg, OperandSuperName}},

	RefOfOp:   {Name: "RefOf", Class: ClassReference, Operands: []OperandKind{OperandSuperName}},
	DerefOfOp: {Name: "DerefOf", Class: ClassTerm, Operands: []OperandKind{OperandTermArg}},
	CondRefOfOp: {Name: "CondRefOf", Class: ClassTerm, Operands: []OperandKind{OperandSuperName, OperandTarget}},
	IndexOp: {Name: "Index", Class: ClassReference, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandTarget}},

	AddOp:        {Name: "Add", Class: ClassTerm, Operands: binaryArith},
	SubtractOp:   {Name: "Subtract", Class: ClassTerm, Operands: binaryArith},
	MultiplyOp:   {Name: "Multiply", Class: ClassTerm, Operands: binaryArith},
	DivideOp:     {Name: "Divide", Class: ClassTerm, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandTarget, OperandTarget}},
	ShiftLeftOp:  {Name: "ShiftLeft", Class: ClassTerm, Operands: binaryArith},
	ShiftRightOp: {Name: "ShiftRight", Class: ClassTerm, Operands: binaryArith},
	AndOp:        {Name: "And", Class: ClassTerm, Operands: binaryArith},
	NAndOp:       {Name: "NAnd", Class: ClassTerm, Operands: binaryArith},
	OrOp:         {Name: "Or", Class: ClassTerm, Operands: binaryArith},
	NOrOp:        {Name: "NOr", Class: ClassTerm, Operands: binaryArith},
	XOrOp:        {Name: "XOr", Class: ClassTerm, Operands: binaryArith},
	ModOp:        {Name: "Mod", Class: ClassTerm, Operands: binaryArith},
	ConcatOp:     {Name: "Concat", Class: ClassTerm, Operands: binaryArith},
	ConcatResOp:  {Name: "ConcatRes", Class: ClassTerm, Operands: binaryArith},

	NotOp:             {Name: "Not", Class: ClassTerm, Operands: unaryArith},
	FindSetLeftBitOp:  {Name: "FindSetLeftBit", Class: ClassTerm, Operands: unaryArith},
	FindSetRightBitOp: {Name: "FindSetRightBit", Class: ClassTerm, Operands: unaryArith},
	ToBufferOp:        {Name: "ToBuffer", Class: ClassTerm, Operands: unaryArith},
	ToDecimalStringOp: {Name: "ToDecimalString", Class: ClassTerm, Operands: unaryArith},
	ToHexStringOp:     {Name: "ToHexString", Class: ClassTerm, Operands: unaryArith},
	ToIntegerOp:       {Name: "ToInteger", Class: ClassTerm, Operands: unaryArith},
	ToStringOp:        {Name: "ToString", Class: ClassTerm, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandTarget}},
	CopyObjectOp:      {Name: "CopyObject", Class: ClassTerm, Operands: []OperandKind{OperandTermArg, OperandSuperName}},
	MidOp:             {Name: "Mid", Class: ClassTerm, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandTermArg, OperandTarget}},
	ObjectTypeOp:      {Name: "ObjectType", Class: ClassTerm, Operands: []OperandKind{OperandSuperName}},
	SizeOfOp:          {Name: "SizeOf", Class: ClassTerm, Operands: []OperandKind{OperandSuperName}},
	IncrementOp:       {Name: "Increment", Class: ClassTerm, Operands: []OperandKind{OperandSuperName}},
	DecrementOp:       {Name: "Decrement", Class: ClassTerm, Operands: []OperandKind{OperandSuperName}},
	MatchOp: {Name: "Match", Class: ClassTerm, Operands: []OperandKind{
		OperandTermArg, OperandByteData, OperandTermArg, OperandByteData, OperandTermArg, OperandTermArg,
	}},

	CreateBitFieldOp:   {Name: "CreateBitField", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandNameString}},
	CreateByteFieldOp:  {Name: "CreateByteField", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandNameString}},
	CreateWordFieldOp:  {Name: "CreateWordField", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandNameString}},
	CreateDWordFieldOp: {Name: "CreateDWordField", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandNameString}},
	CreateQWordFieldOp: {Name: "CreateQWordField", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandNameString}},

	LAndOp:     {Name: "LAnd", Class: ClassTerm, Operands: logicalBinary},
	LOrOp:      {Name: "LOr", Class: ClassTerm, Operands: logicalBinary},
	LNotOp:     {Name: "LNot", Class: ClassTerm, Operands: logicalUnary},
	LEqualOp:   {Name: "LEqual", Class: ClassTerm, Operands: logicalBinary},
	LGreaterOp: {Name: "LGreater", Class: ClassTerm, Operands: logicalBinary},
	LLessOp:    {Name: "LLess", Class: ClassTerm, Operands: logicalBinary},

	IfOp:    {Name: "If", Class: ClassStatement, HasPkgLength: true, Operands: []OperandKind{OperandTermArg, OperandVarTermArgList}},
	ElseOp:  {Name: "Else", Class: ClassStatement, HasPkgLength: true, Operands: []OperandKind{OperandVarTermArgList}},
	WhileOp: {Name: "While", Class: ClassStatement, HasPkgLength: true, Operands: []OperandKind{OperandTermArg, OperandVarTermArgList}},
	ReturnOp: {Name: "Return", Class: ClassStatement, Operands: []OperandKind{OperandTermArg}},
	BreakOp:  {Name: "Break", Class: ClassStatement},
	ContinueOp: {Name: "Continue", Class: ClassStatement},
	NoopOp:   {Name: "Noop", Class: ClassStatement},
	BreakPointOp: {Name: "BreakPoint", Class: ClassStatement},
	NotifyOp: {Name: "Notify", Class: ClassStatement, Operands: []OperandKind{OperandSuperName, OperandTermArg}},

	// Extended-prefix opcodes.
	MutexOp: {Name: "Mutex", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandNameString, OperandByteData}},
	EventOp: {Name: "Event", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandNameString}},
	CreateFieldOp: {Name: "CreateField", Class: ClassNamespaceModifier, Operands: []OperandKind{OperandTermArg, OperandTermArg, OperandTermArg, OperandNameString}},
	LoadTableOp: {Name: "LoadTable", Class: ClassTerm, Operands: []OperandKind{
		OperandTermArg, OperandTermArg, OperandTermArg, OperandTermArg, OperandTermArg, OperandTermArg,
	}},
	LoadOp:    {Name: "Load", Class: ClassTerm, Operands: []OperandKind{OperandNameString, OperandSuperName}},
	UnloadOp:  {Name: "Unload", Class: ClassStatement, Operands: []OperandKind{OperandSuperName}},
	StallOp:   {Name: "Stall", Class: ClassStatement, Operands: []OperandKind{OperandTermArg}},
	SleepOp:   {Name: "Sleep", Class: ClassStatement, Operands: []OperandKind{OperandTermArg}},
	AcquireOp: {Name: "Acquire", Class: ClassTerm, Operands: []OperandKind{OperandSuperName, OperandWordData}},
	SignalOp:  {Name: "Signal", Class: ClassStatement, Operands: []OperandKind{OperandSuperName}},
	WaitOp:    {Name: "Wait", Class: ClassTerm, Operands: []OperandKind{OperandSuperName, OperandTermArg}},
	ResetOp:   {Name: "Reset", Class: ClassStatement, Operands: []OperandKind{OperandSuperName}},
	ReleaseOp: {Name: "Release", Class: ClassStatement, Operands: []OperandKind{OperandSuperName}},
	FromBCDOp: {Name: "FromBCD", Class: ClassTerm, Operands: unaryArith},
	ToBCDOp:   {Name: "ToBCD", Class: ClassTerm, Operands: unaryArith},
	RevisionOp: {Name: "Revision", Class: ClassData},
	DebugOp:   {Name: "Debug", Class: ClassReference},
	FatalOp:   {Name: "Fatal", Class: ClassStatement, Operands: []OperandKind{OperandByteData, OperandDWordData, OperandTermArg}},
	TimerOp:   {Name: "Timer", Class: ClassTerm},

	OpRegionOp: {Name: "OperationRegion", Class: ClassNamespaceModifier, Operands: []OperandKind{
		OperandNameString, OperandByteData, OperandTermArg, OperandTermArg,
	}},
	FieldOp: {Name: "Field", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{
		OperandNameString, OperandByteData, OperandFieldList,
	}},
	IndexFieldOp: {Name: "IndexField", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{
		OperandNameString, OperandNameString, OperandByteData, OperandFieldList,
	}},
	BankFieldOp: {Name: "BankField", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{
		OperandNameString, OperandNameString, OperandTermArg, OperandByteData, OperandFieldList,
	}},
	DataRegionOp: {Name: "DataRegion", Class: ClassNamespaceModifier, Operands: []OperandKind{
		OperandNameString, OperandTermArg, OperandTermArg, OperandTermArg,
	}},

	DeviceOp:      {Name: "Device", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{OperandNameString, OperandVarTermArgList}},
	ProcessorOp:   {Name: "Processor", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{OperandNameString, OperandByteData, OperandDWordData, OperandByteData, OperandVarTermArgList}},
	PowerResOp:    {Name: "PowerResource", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{OperandNameString, OperandByteData, OperandWordData, OperandVarTermArgList}},
	ThermalZoneOp: {Name: "ThermalZone", Class: ClassNamespaceModifier, HasPkgLength: true, Operands: []OperandKind{OperandNameString, OperandVarTermArgList}},
}

// Lookup returns the descriptor for op, if known.
func Lookup(op Opcode) (Descriptor, bool) {
	d, ok := table[op]
	return d, ok
}

// IsLocal reports whether op is one of Local0..Local7, returning its index.
func IsLocal(op Opcode) (int, bool) {
	if op >= Local0Op && op <= Local7Op {
		return int(op - Local0Op), true
	}
	return 0, false
}

// IsArg reports whether op is one of Arg0..Arg6, returning its index.
func IsArg(op Opcode) (int, bool) {
	if op >= Arg0Op && op <= Arg6Op {
		return int(op - Arg0Op), true
	}
	return 0, false
}
