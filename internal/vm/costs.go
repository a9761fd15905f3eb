package vm

type Gas int64

// Fixed part of each instruction's cost. Size dependent instructions add
// len/SizeCostDivisor on top, state writes add StateWriteByteCost*len/SizeCostDivisor.
const (
	NextCost       Gas = 0
	UnknownCost    Gas = 0
	ExitCost       Gas = 1
	ExitBfrCost    Gas = 1
	InitBfrCost    Gas = 2
	CpyBfrCost     Gas = 2
	CpyBfrInitCost Gas = 2
	FreeBfrCost    Gas = 2
	BfrStatCost    Gas = 1
	BfrLenCost     Gas = 1
	AddCost        Gas = 1
	SubCost        Gas = 1
	MulCost        Gas = 2
	DivCost        Gas = 2
	ExpCost        Gas = 3
	ModCost        Gas = 1
	AndCost        Gas = 1
	OrCost         Gas = 1
	NotCost        Gas = 1
	EqCost         Gas = 1
	LessCost       Gas = 1
	AppCost        Gas = 2
	SliceCost      Gas = 2
	ShiftCost      Gas = 2
	JmpCost        Gas = 1
	JmpCondCost    Gas = 2
	CallCost       Gas = 2
	RetCost        Gas = 1
	StdoutCost     Gas = 1
	PrintStrCost   Gas = 1
	StderrCost     Gas = 1
	SetCnstCost    Gas = 2
	TxCost         Gas = 4
	ChainLenCost   Gas = 2
	UpdateCost     Gas = 3
	GetCost        Gas = 2
	QueryCost      Gas = 20
	InvokeCost     Gas = 3
	GetSenderCost  Gas = 1

	SizeCostDivisor    = 10
	StateWriteByteCost = 6
)

var mathCosts = map[MathOp]Gas{
	OpAdd:  AddCost,
	OpSub:  SubCost,
	OpMul:  MulCost,
	OpDiv:  DivCost,
	OpExp:  ExpCost,
	OpMod:  ModCost,
	OpAnd:  AndCost,
	OpOr:   OrCost,
	OpNot:  NotCost,
	OpLess: LessCost,
}

func sizeCost(n int) Gas {
	return Gas(n / SizeCostDivisor)
}

func stateWriteCost(n int) Gas {
	return UpdateCost + Gas(StateWriteByteCost*n/SizeCostDivisor)
}
