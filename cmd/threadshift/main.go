package main

import "github.com/ppiankov/threadshift/internal/cli"

func main() {
	cli.Execute()
}
