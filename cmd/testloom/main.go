package main

import "github.com/testloom/testloom/internal/cli"

func main() {
	cli.Execute()
}
