package main

import "github.com/OpenTraceLab/OpenTraceSelectMAP/cmd/smap/cmd"

func main() {
	cmd.Execute()
}
