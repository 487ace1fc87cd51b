package main

import (
	"github.com/mkerrigan/roomrelay/internal/cli"
)

func main() {
	cli.Execute()
}
