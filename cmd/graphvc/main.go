package main

import (
	"github.com/conceptgraph/graphvc/cmd/graphvc/cmd"
)

func main() {
	cmd.Execute()
}
