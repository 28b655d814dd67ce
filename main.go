package main

import (
	"github.com/clockwise-hq/clockwise/cmd"
)

func main() {
	cmd.Execute()
}
