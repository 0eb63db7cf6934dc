package main

import "treewalk/internal/cli"

func main() {
	cli.Execute()
}
