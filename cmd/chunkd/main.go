package main

import "github.com/chunkd/chunkd/cmd/chunkd/cmd"

func main() {
	cmd.Execute()
}
