package main

import "github.com/facelock/facelock/cmd"

func main() {
	cmd.Execute()
}
