package main

import "github.com/tanq16/gdfetch/cmd"

func main() {
	cmd.Execute()
}
