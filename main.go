package main

import "github.com/will-rowe/taxbench/cmd"

func main() {
	cmd.Execute()
}
