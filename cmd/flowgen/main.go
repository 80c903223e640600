package main

import "flowgen/internal/cli"

func main() {
	cli.Execute()
}
