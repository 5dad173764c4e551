package main

import "github.com/KaramelBytes/instaloom-cli/cmd"

func main() {
	cmd.Execute()
}
