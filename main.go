package main

import "github.com/Digital-Shane/episode-roulette/internal/cmd"

func main() {
	cmd.Execute()
}
