package main

import "github.com/wichert/pgarchive/cmd/pgarchive/cmd"

func main() {
	cmd.Execute()
}
