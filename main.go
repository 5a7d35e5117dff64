package main

import "github.com/karlding/canunions/cmd"

func main() {
	cmd.Execute()
}
