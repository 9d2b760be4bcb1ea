package main

import "github.com/MeKo-Tech/meterocr/cmd/meterocr/cmd"

func main() {
	cmd.Execute()
}
