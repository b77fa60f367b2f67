package main

import "comichub/cmd/cli/command"

func main() {
	command.Execute()
}
