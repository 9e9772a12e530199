package main

import "SpectraFM/cmd"

func main() {
	cmd.Execute()
}
