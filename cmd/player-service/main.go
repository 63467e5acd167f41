package main

import "github.com/spscricket/player-service/internal/cli"

func main() {
	cli.Execute()
}
