package main

import (
	"nistats/cmd/nistats/cmd"
)

func main() {
	cmd.Execute()
}
