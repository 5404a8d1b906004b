package main

import "github.com/sander-remitly/plandash/cmd"

func main() {
	cmd.Execute()
}
