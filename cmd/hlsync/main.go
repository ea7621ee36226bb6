package main

import "github.com/forPelevin/hlsync/internal/cli"

func main() {
	cli.Main()
}
