package main

import "github.com/brogergvhs/mangadex-dl/cmd"

func main() {
	cmd.Execute()
}
