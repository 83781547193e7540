package main

import "github.com/minvws/eudcc-decoder/cmd"

func main() {
	cmd.Execute()
}
