package board

import "github.com/alecthomas/participle/v2/lexer"

// File is the root of a parsed board description.
type File struct {
	Boards []*Board `@@*`
}

// Board is one named board block.
//
//	board "fic-rpi" {
//		data port 0 offset 8;
//		init pin 4;
//		...
//	}
type Board struct {
	Pos        lexer.Position
	Name       string       `"board" @(String | Ident) "{"`
	Statements []*Statement `@@* "}"`
}

// Statement is a single line inside a board block.
type Statement struct {
	Pos     lexer.Position
	Data    *DataStmt    `  @@`
	Signal  *SignalStmt  `| @@`
	Swap    *SwapStmt    `| @@`
	Timing  *TimingStmt  `| @@`
	Clocks  *ClocksStmt  `| @@`
	Adapter *AdapterStmt `| @@`
}

// DataStmt binds D0-D7: data port <n> offset <bit>;
type DataStmt struct {
	Port   string `"data" "port" @Number`
	Offset string `"offset" @Number ";"`
}

// SignalStmt binds one control signal: init pin <n>;
type SignalStmt struct {
	Signal string `@("init" | "program" | "clock" | "done")`
	Pin    string `"pin" @Number ";"`
}

// SwapStmt enables bit swapping: swap_bits true;
type SwapStmt struct {
	Value string `"swap_bits" @("true" | "false") ";"`
}

// TimingStmt overrides one delay: reset_pulse 10ms;
type TimingStmt struct {
	Name  string `@("reset_pulse" | "poll_interval" | "ready_timeout")`
	Value string `@Duration ";"`
}

// ClocksStmt overrides the dummy clock budget: done_clocks 1024;
type ClocksStmt struct {
	Count string `"done_clocks" @Number ";"`
}

// AdapterStmt names the bus adapter and its parameters:
//
//	adapter ftdi { vid = 0x0403; pid = 0x6014; }
type AdapterStmt struct {
	Kind   string   `"adapter" @(Ident | String)`
	Params []*Param `( "{" @@* "}" | ";" )`
}

// Param is a key = value pair inside an adapter block.
type Param struct {
	Pos   lexer.Position
	Key   string `@Ident "="`
	Value string `@(String | Number | Duration | Ident) ";"`
}
