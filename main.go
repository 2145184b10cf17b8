package main

import "github.com/podjisin/tvd/cmd"

func main() {
	cmd.Execute()
}
