package main

import "booru/cmd"

func main() {
	cmd.Execute()
}
