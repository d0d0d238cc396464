package main

import "github.com/onion-tools/odt/cmd/odt/cmd"

func main() {
	cmd.Execute()
}
