package vm

// Mnemonic names an instruction in contract source.
type Mnemonic string

const (
	Next                     Mnemonic = "NEXT"
	Exit                     Mnemonic = "Exit"
	ExitBfr                  Mnemonic = "ExitBfr"
	InitBfr                  Mnemonic = "InitBfr"
	CpyBfr                   Mnemonic = "CpyBfr"
	FreeBfr                  Mnemonic = "FreeBfr"
	BfrStat                  Mnemonic = "BfrStat"
	BfrLen                   Mnemonic = "BfrLen"
	Add                      Mnemonic = "Add"
	Sub                      Mnemonic = "Sub"
	Mul                      Mnemonic = "Mul"
	Div                      Mnemonic = "Div"
	Exp                      Mnemonic = "Exp"
	Mod                      Mnemonic = "Mod"
	And                      Mnemonic = "And"
	Or                       Mnemonic = "Or"
	Not                      Mnemonic = "Not"
	Eq                       Mnemonic = "Eq"
	Less                     Mnemonic = "Less"
	App                      Mnemonic = "App"
	Slice                    Mnemonic = "Slice"
	Shiftl                   Mnemonic = "Shiftl"
	Shiftr                   Mnemonic = "Shiftr"
	Jmp                      Mnemonic = "Jmp"
	JmpCond                  Mnemonic = "JmpCond"
	Call                     Mnemonic = "Call"
	Ret                      Mnemonic = "Ret"
	Stdout                   Mnemonic = "Stdout"
	PrintStr                 Mnemonic = "PrintStr"
	Stderr                   Mnemonic = "Stderr"
	SetCnst                  Mnemonic = "SetCnst"
	Tx                       Mnemonic = "Tx"
	ChainLen                 Mnemonic = "ChainLen"
	UpdateState              Mnemonic = "UpdateState"
	UpdateStateExternal      Mnemonic = "UpdateStateExternal"
	GetFromState             Mnemonic = "GetFromState"
	GetFromStateExternal     Mnemonic = "GetFromStateExternal"
	GetFromStateSync         Mnemonic = "GetFromStateSync"
	GetFromStateExternalSync Mnemonic = "GetFromStateExternalSync"
	QueryOracle              Mnemonic = "QueryOracle"
	Invoke                   Mnemonic = "Invoke"
	GetSender                Mnemonic = "GetSender"
)

var mathMnemonics = map[Mnemonic]MathOp{
	Add:  OpAdd,
	Sub:  OpSub,
	Mul:  OpMul,
	Div:  OpDiv,
	Exp:  OpExp,
	Mod:  OpMod,
	And:  OpAnd,
	Or:   OpOr,
	Not:  OpNot,
	Less: OpLess,
}
