package main

import "github.com/josephlewis42/conduit/cmd"

func main() {
	cmd.Execute()
}
