package main

import "github.com/maximbilan/sensclip/cmd"

func main() {
	cmd.Execute()
}
