package main

import "github.com/nwestfall/bookforge/cmd"

func main() {
	cmd.Execute()
}
