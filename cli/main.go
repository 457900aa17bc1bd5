package main

import "southwinds.dev/askpass/cli/cmd"

func main() {
	cmd.Execute()
}
