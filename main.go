package main

import "github.com/polyfold/polychat/cmd"

func main() {
	cmd.Execute()
}
