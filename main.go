package main

import "github.com/jmehdipour/inventory-sim/cmd"

func main() {
	cmd.Execute()
}
