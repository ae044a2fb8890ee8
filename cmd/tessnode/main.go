package main

import "github.com/MeKo-Tech/tessnode/cmd/tessnode/cmd"

func main() {
	cmd.Execute()
}
