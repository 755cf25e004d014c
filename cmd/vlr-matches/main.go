package main

import "vlr-matches/internal/cli"

func main() {
	cli.Execute()
}
