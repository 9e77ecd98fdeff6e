package main

import "github.com/kozaktomas/photo-cleanup/cmd"

func main() {
	cmd.Execute()
}
