package main

import "github.com/tristendillon/dashc/cmd"

func main() {
	cmd.Execute()
}
