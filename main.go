package main

import "github.com/notargets/goprob3/cmd"

func main() {
	cmd.Execute()
}
